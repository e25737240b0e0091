package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// ValidationError reports a raw artist record that cannot be resolved.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("raw artist record missing %s", e.Field)
}

// Resolver maps raw catalog artist records to canonical artist entities.
// Name is the dedup key: the first sighting of a name creates the entity,
// later sightings return it unchanged. Resolve never mutates an existing
// entity; callers that need to refresh fields do so explicitly.
type Resolver struct {
	artists ArtistStore
}

// NewResolver creates a Resolver backed by the given artist store.
func NewResolver(artists ArtistStore) *Resolver {
	return &Resolver{artists: artists}
}

// Resolve finds or creates the canonical artist for a raw record.
// Returns a ValidationError when the record has no name or no follower
// total.
func (r *Resolver) Resolve(ctx context.Context, raw catalog.RawArtist) (*db.Artist, error) {
	if raw.Name == "" {
		return nil, &ValidationError{Field: "name"}
	}
	if raw.Followers == nil {
		return nil, &ValidationError{Field: "follower total"}
	}

	existing, err := r.artists.GetByName(ctx, raw.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("looking up artist %q: %w", raw.Name, err)
	}

	artist := &db.Artist{Name: raw.Name}
	applyRaw(artist, raw)

	created, err := r.artists.Create(ctx, artist)
	if err != nil {
		return nil, fmt.Errorf("creating artist %q: %w", raw.Name, err)
	}
	return created, nil
}

// applyRaw copies the mutable fields of a sighting onto an artist. The
// most recent sighting is authoritative; the external id and URI are only
// overwritten when the sighting carries them.
func applyRaw(artist *db.Artist, raw catalog.RawArtist) {
	if raw.ID != "" {
		id := raw.ID
		artist.SpotifyID = &id
	}
	if raw.URI != "" {
		uri := raw.URI
		artist.URI = &uri
	}
	artist.Popularity = raw.Popularity
	artist.Genres = raw.Genres
	if raw.Followers != nil {
		artist.FollowerCount = raw.Followers.Total
	}
	artist.Images = make([]db.Image, len(raw.Images))
	for i, image := range raw.Images {
		artist.Images[i] = db.Image{
			Height: image.Height,
			Width:  image.Width,
			URL:    image.URL,
		}
	}
}
