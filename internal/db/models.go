package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify listener connected to the service.
type User struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	RefreshToken *string // nil once the grant is revoked
	Scope        string
	LastSynced   *time.Time // nullable
	CreatedAt    time.Time
}

// Image is one variant of an artist image.
type Image struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	URL    string `json:"url"`
}

// Artist is the canonical artist entity, deduplicated by name.
// SpotifyID and URI are backfilled when a sighting carries them.
type Artist struct {
	ID            uuid.UUID
	SpotifyID     *string // nullable
	URI           *string // nullable
	Name          string
	Popularity    int
	Genres        []string
	FollowerCount int
	Images        []Image
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserArtist links a user to one of their top artists with a 1-based rank.
// The full set for a user is replaced on every sync.
type UserArtist struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ArtistID  uuid.UUID
	Rank      int
	CreatedAt time.Time
}

// RelatedArtist is a directed edge in the artist relationship graph.
// Rank records the relevance position from the catalog; CreatedAt also
// encodes relevance order as a backward offset within one reconciliation
// pass. Edges are refreshed, never deleted.
type RelatedArtist struct {
	ID              uuid.UUID
	RootArtistID    uuid.UUID
	RelatedArtistID uuid.UUID
	Rank            int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Login is a username/password credential for the export endpoints.
type Login struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserArtistRow is a joined row for the listening history export.
type UserArtistRow struct {
	UserName      string
	UserEmail     string
	Rank          int
	ArtistName    string
	Popularity    int
	FollowerCount int
	Genres        []string
}

// GenreCountRow is a joined row for the genre aggregate export.
type GenreCountRow struct {
	UserName    string
	UserEmail   string
	Genre       string
	ArtistCount int
}
