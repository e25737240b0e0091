package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtistRepository handles artist database operations.
type ArtistRepository struct {
	pool *pgxpool.Pool
}

const artistColumns = `id, spotify_id, uri, name, popularity, genres, follower_count, images, created_at, updated_at`

func scanArtist(row pgx.Row) (*Artist, error) {
	var (
		artist Artist
		images []byte
	)
	err := row.Scan(
		&artist.ID,
		&artist.SpotifyID,
		&artist.URI,
		&artist.Name,
		&artist.Popularity,
		&artist.Genres,
		&artist.FollowerCount,
		&images,
		&artist.CreatedAt,
		&artist.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning artist: %w", err)
	}
	if err := json.Unmarshal(images, &artist.Images); err != nil {
		return nil, fmt.Errorf("decoding artist images: %w", err)
	}
	return &artist, nil
}

func encodeImages(images []Image) ([]byte, error) {
	if images == nil {
		images = []Image{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encoding artist images: %w", err)
	}
	return encoded, nil
}

// Get retrieves an artist by ID.
func (r *ArtistRepository) Get(ctx context.Context, id uuid.UUID) (*Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`
	return scanArtist(r.pool.QueryRow(ctx, query, id))
}

// GetByName retrieves an artist by exact name. Name is the dedup key.
func (r *ArtistRepository) GetByName(ctx context.Context, name string) (*Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE name = $1`
	return scanArtist(r.pool.QueryRow(ctx, query, name))
}

// Create inserts a new artist. If another caller creates the same name
// concurrently, the insert is a no-op and the existing row is returned,
// so concurrent find-or-create converges on one row per name.
func (r *ArtistRepository) Create(ctx context.Context, artist *Artist) (*Artist, error) {
	if artist.ID == uuid.Nil {
		artist.ID = uuid.New()
	}
	images, err := encodeImages(artist.Images)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO artists (id, spotify_id, uri, name, popularity, genres, follower_count, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (name) DO NOTHING
		RETURNING ` + artistColumns
	created, err := scanArtist(r.pool.QueryRow(ctx, query,
		artist.ID,
		artist.SpotifyID,
		artist.URI,
		artist.Name,
		artist.Popularity,
		artist.Genres,
		artist.FollowerCount,
		images,
	))
	if errors.Is(err, ErrNotFound) {
		// Lost the race; the row exists now.
		return r.GetByName(ctx, artist.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting artist: %w", err)
	}
	return created, nil
}

// Update overwrites the mutable artist fields. The most recent sighting
// is authoritative for popularity, genres, followers and images.
func (r *ArtistRepository) Update(ctx context.Context, artist *Artist) error {
	images, err := encodeImages(artist.Images)
	if err != nil {
		return err
	}
	query := `
		UPDATE artists
		SET spotify_id = $2, uri = $3, popularity = $4, genres = $5,
			follower_count = $6, images = $7, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		artist.ID,
		artist.SpotifyID,
		artist.URI,
		artist.Popularity,
		artist.Genres,
		artist.FollowerCount,
		images,
	)
	if err != nil {
		return fmt.Errorf("updating artist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByIDs returns the artists with the given IDs, in no particular order.
func (r *ArtistRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("querying artists: %w", err)
	}
	defer rows.Close()

	var artists []Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, *artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artists: %w", err)
	}
	return artists, nil
}
