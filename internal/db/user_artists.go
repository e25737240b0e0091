package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserArtistRepository handles ranked user-to-artist associations.
type UserArtistRepository struct {
	pool *pgxpool.Pool
}

// DeleteByUser removes all associations for a user. Called before the
// fresh ranked set is written on each sync.
func (r *UserArtistRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_artists WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting user artists: %w", err)
	}
	return nil
}

// CreateBatch inserts a ranked set of associations in one statement.
func (r *UserArtistRepository) CreateBatch(ctx context.Context, userArtists []UserArtist) error {
	if len(userArtists) == 0 {
		return nil
	}

	query := `
		INSERT INTO user_artists (id, user_id, artist_id, rank, created_at)
		SELECT * FROM unnest($1::uuid[], $2::uuid[], $3::uuid[], $4::int[], $5::timestamptz[])
	`

	ids := make([]uuid.UUID, len(userArtists))
	userIDs := make([]uuid.UUID, len(userArtists))
	artistIDs := make([]uuid.UUID, len(userArtists))
	ranks := make([]int, len(userArtists))
	createdAts := make([]time.Time, len(userArtists))

	for i := range userArtists {
		if userArtists[i].ID == uuid.Nil {
			userArtists[i].ID = uuid.New()
		}
		if userArtists[i].CreatedAt.IsZero() {
			userArtists[i].CreatedAt = time.Now()
		}
		ids[i] = userArtists[i].ID
		userIDs[i] = userArtists[i].UserID
		artistIDs[i] = userArtists[i].ArtistID
		ranks[i] = userArtists[i].Rank
		createdAts[i] = userArtists[i].CreatedAt
	}

	if _, err := r.pool.Exec(ctx, query, ids, userIDs, artistIDs, ranks, createdAts); err != nil {
		return fmt.Errorf("inserting user artists: %w", err)
	}
	return nil
}

// ListByUser returns a user's associations ordered by rank.
func (r *UserArtistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserArtist, error) {
	query := `
		SELECT id, user_id, artist_id, rank, created_at
		FROM user_artists
		WHERE user_id = $1
		ORDER BY rank
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user artists: %w", err)
	}
	defer rows.Close()

	var userArtists []UserArtist
	for rows.Next() {
		var ua UserArtist
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.ArtistID, &ua.Rank, &ua.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user artist: %w", err)
		}
		userArtists = append(userArtists, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user artists: %w", err)
	}
	return userArtists, nil
}

// ListRows returns the joined listening history for the CSV export,
// grouped by user and ordered by rank within each user.
func (r *UserArtistRepository) ListRows(ctx context.Context) ([]UserArtistRow, error) {
	query := `
		SELECT u.display_name, u.email, ua.rank, a.name, a.popularity, a.follower_count, a.genres
		FROM user_artists ua
		JOIN users u ON u.id = ua.user_id
		JOIN artists a ON a.id = ua.artist_id
		ORDER BY u.email, ua.rank
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying user artist rows: %w", err)
	}
	defer rows.Close()

	var result []UserArtistRow
	for rows.Next() {
		var row UserArtistRow
		if err := rows.Scan(
			&row.UserName,
			&row.UserEmail,
			&row.Rank,
			&row.ArtistName,
			&row.Popularity,
			&row.FollowerCount,
			&row.Genres,
		); err != nil {
			return nil, fmt.Errorf("scanning user artist row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user artist rows: %w", err)
	}
	return result, nil
}

// GenreRows aggregates genre counts across each user's top artists for
// the genre CSV export.
func (r *UserArtistRepository) GenreRows(ctx context.Context) ([]GenreCountRow, error) {
	query := `
		SELECT u.display_name, u.email, g.genre, COUNT(*) AS artist_count
		FROM user_artists ua
		JOIN users u ON u.id = ua.user_id
		JOIN artists a ON a.id = ua.artist_id
		CROSS JOIN LATERAL unnest(a.genres) AS g(genre)
		GROUP BY u.display_name, u.email, g.genre
		ORDER BY u.email, artist_count DESC, g.genre
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying genre rows: %w", err)
	}
	defer rows.Close()

	var result []GenreCountRow
	for rows.Next() {
		var row GenreCountRow
		if err := rows.Scan(&row.UserName, &row.UserEmail, &row.Genre, &row.ArtistCount); err != nil {
			return nil, fmt.Errorf("scanning genre row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating genre rows: %w", err)
	}
	return result, nil
}
