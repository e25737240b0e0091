// Package sync implements the artist synchronization engine: resolving
// raw catalog records into canonical artists, reconciling the related-
// artist graph, syncing one user's ranked top-artist list, and driving
// the whole batch across all users.
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// CatalogClient is the slice of the catalog API the engine needs.
type CatalogClient interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*catalog.Token, error)
	ExchangeClientCredentials(ctx context.Context) (*catalog.Token, error)
	TopArtists(ctx context.Context, accessToken string, limit int) ([]catalog.RawArtist, error)
	RelatedArtists(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error)
}

// ArtistStore is the artist persistence surface used by the resolver and
// orchestrator. Create must tolerate a concurrent insert of the same name
// by returning the surviving row.
type ArtistStore interface {
	GetByName(ctx context.Context, name string) (*db.Artist, error)
	Create(ctx context.Context, artist *db.Artist) (*db.Artist, error)
	Update(ctx context.Context, artist *db.Artist) error
}

// UserStore is the user persistence surface used by the orchestrator and
// batch driver.
type UserStore interface {
	List(ctx context.Context) ([]db.User, error)
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	UpdateLastSynced(ctx context.Context, id uuid.UUID, syncTime time.Time) error
}

// UserArtistStore replaces a user's ranked association set.
type UserArtistStore interface {
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	CreateBatch(ctx context.Context, userArtists []db.UserArtist) error
}

// EdgeStore is the relationship-graph persistence surface. Create must
// tolerate a concurrent insert of the same (root, related) pair.
type EdgeStore interface {
	Get(ctx context.Context, rootID, relatedID uuid.UUID) (*db.RelatedArtist, error)
	Create(ctx context.Context, edge *db.RelatedArtist) (*db.RelatedArtist, error)
	Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error
}
