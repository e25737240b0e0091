package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RelatedArtistRepository handles the directed artist relationship graph.
type RelatedArtistRepository struct {
	pool *pgxpool.Pool
}

const relatedArtistColumns = `id, root_artist_id, related_artist_id, rank, created_at, updated_at`

func scanRelatedArtist(row pgx.Row) (*RelatedArtist, error) {
	var edge RelatedArtist
	err := row.Scan(
		&edge.ID,
		&edge.RootArtistID,
		&edge.RelatedArtistID,
		&edge.Rank,
		&edge.CreatedAt,
		&edge.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning related artist: %w", err)
	}
	return &edge, nil
}

// Get retrieves the edge for an ordered (root, related) pair.
func (r *RelatedArtistRepository) Get(ctx context.Context, rootID, relatedID uuid.UUID) (*RelatedArtist, error) {
	query := `
		SELECT ` + relatedArtistColumns + `
		FROM related_artists
		WHERE root_artist_id = $1 AND related_artist_id = $2
	`
	return scanRelatedArtist(r.pool.QueryRow(ctx, query, rootID, relatedID))
}

// Create inserts a new edge. The unique (root, related) constraint makes
// a concurrent duplicate insert a no-op; the surviving row is returned.
func (r *RelatedArtistRepository) Create(ctx context.Context, edge *RelatedArtist) (*RelatedArtist, error) {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	query := `
		INSERT INTO related_artists (id, root_artist_id, related_artist_id, rank, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (root_artist_id, related_artist_id) DO NOTHING
		RETURNING ` + relatedArtistColumns
	created, err := scanRelatedArtist(r.pool.QueryRow(ctx, query,
		edge.ID,
		edge.RootArtistID,
		edge.RelatedArtistID,
		edge.Rank,
		edge.CreatedAt,
		edge.UpdatedAt,
	))
	if errors.Is(err, ErrNotFound) {
		return r.Get(ctx, edge.RootArtistID, edge.RelatedArtistID)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting related artist: %w", err)
	}
	return created, nil
}

// Touch refreshes an existing edge's updated_at timestamp.
func (r *RelatedArtistRepository) Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE related_artists SET updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return fmt.Errorf("touching related artist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByRoot returns a root artist's edges in relevance order, most
// relevant first.
func (r *RelatedArtistRepository) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]RelatedArtist, error) {
	query := `
		SELECT ` + relatedArtistColumns + `
		FROM related_artists
		WHERE root_artist_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("querying related artists: %w", err)
	}
	defer rows.Close()

	var edges []RelatedArtist
	for rows.Next() {
		edge, err := scanRelatedArtist(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related artists: %w", err)
	}
	return edges, nil
}

// ListUnheard returns edges whose root is in the given artist set and
// whose related artist is not, up to limit. These are the recommendation
// candidates the user has not already got in their top list.
func (r *RelatedArtistRepository) ListUnheard(ctx context.Context, artistIDs []uuid.UUID, limit int) ([]RelatedArtist, error) {
	if len(artistIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + relatedArtistColumns + `
		FROM related_artists
		WHERE root_artist_id = ANY($1) AND NOT (related_artist_id = ANY($1))
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, artistIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("querying unheard artists: %w", err)
	}
	defer rows.Close()

	var edges []RelatedArtist
	for rows.Next() {
		edge, err := scanRelatedArtist(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating unheard artists: %w", err)
	}
	return edges, nil
}
