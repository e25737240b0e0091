package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginRepository handles username/password credentials for the export
// endpoints. Orthogonal to the Spotify-connected users table.
type LoginRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new login.
func (r *LoginRepository) Create(ctx context.Context, login *Login) error {
	if login.ID == uuid.Nil {
		login.ID = uuid.New()
	}
	query := `
		INSERT INTO logins (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query, login.ID, login.Username, login.PasswordHash).Scan(&login.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting login: %w", err)
	}
	return nil
}

// GetByUsername retrieves a login by username.
func (r *LoginRepository) GetByUsername(ctx context.Context, username string) (*Login, error) {
	query := `SELECT id, username, password_hash, created_at FROM logins WHERE username = $1`
	var login Login
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&login.ID,
		&login.Username,
		&login.PasswordHash,
		&login.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying login: %w", err)
	}
	return &login, nil
}
