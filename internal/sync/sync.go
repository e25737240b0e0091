package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// Service orchestrates a single user's sync: credential refresh, top-
// artist fetch, artist resolution, and replacement of the user's ranked
// association set.
type Service struct {
	catalog     CatalogClient
	resolver    *Resolver
	users       UserStore
	artists     ArtistStore
	userArtists UserArtistStore

	topLimit int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTopArtistLimit overrides the number of top artists fetched per user.
func WithTopArtistLimit(limit int) Option {
	return func(s *Service) {
		s.topLimit = limit
	}
}

// New creates a sync Service.
func New(client CatalogClient, resolver *Resolver, users UserStore, artists ArtistStore, userArtists UserArtistStore, opts ...Option) *Service {
	s := &Service{
		catalog:     client,
		resolver:    resolver,
		users:       users,
		artists:     artists,
		userArtists: userArtists,
		topLimit:    catalog.DefaultTopArtistLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncUser refreshes one user's top-artist list and returns the resolved
// artists for relationship reconciliation.
//
// A user with no refresh token never completed authorization and is
// skipped without error. A refresh exchange rejected as invalid_grant
// clears the stored credential and skips the user; the batch goes on.
// Any other failure propagates to the caller.
func (s *Service) SyncUser(ctx context.Context, user *db.User) ([]db.Artist, error) {
	if user.RefreshToken == nil || *user.RefreshToken == "" {
		return nil, nil
	}

	token, err := s.catalog.ExchangeRefreshToken(ctx, *user.RefreshToken)
	if errors.Is(err, catalog.ErrInvalidGrant) {
		if err := s.users.ClearRefreshToken(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("clearing revoked credential for %s: %w", user.Email, err)
		}
		user.RefreshToken = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exchanging refresh token for %s: %w", user.Email, err)
	}

	raws, err := s.catalog.TopArtists(ctx, token.AccessToken, s.topLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists for %s: %w", user.Email, err)
	}

	// Resolve concurrently; the indexed slice preserves fetch order.
	resolved := make([]*db.Artist, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			artist, err := s.resolver.Resolve(gctx, raw)
			if err != nil {
				return err
			}
			applyRaw(artist, raw)
			if err := s.artists.Update(gctx, artist); err != nil {
				return fmt.Errorf("refreshing artist %q: %w", artist.Name, err)
			}
			resolved[i] = artist
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Replace the ranked association set. Rank follows fetch order,
	// 1-based and contiguous.
	if err := s.userArtists.DeleteByUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("clearing associations for %s: %w", user.Email, err)
	}

	now := s.now()
	userArtists := make([]db.UserArtist, len(resolved))
	for i, artist := range resolved {
		userArtists[i] = db.UserArtist{
			UserID:    user.ID,
			ArtistID:  artist.ID,
			Rank:      i + 1,
			CreatedAt: now,
		}
	}
	if err := s.userArtists.CreateBatch(ctx, userArtists); err != nil {
		return nil, fmt.Errorf("writing associations for %s: %w", user.Email, err)
	}

	if err := s.users.UpdateLastSynced(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("stamping last synced for %s: %w", user.Email, err)
	}
	user.LastSynced = &now

	artists := make([]db.Artist, len(resolved))
	for i, artist := range resolved {
		artists[i] = *artist
	}
	return artists, nil
}
