package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// Reconciler refreshes one root artist's related-artist edges against the
// catalog. Existing edges get their updatedAt refreshed; new edges are
// created with a rank matching the catalog's relevance order and a
// createdAt offset backwards by one millisecond per position, so the
// relevance order is recoverable from createdAt alone.
type Reconciler struct {
	catalog  CatalogClient
	resolver *Resolver
	edges    EdgeStore

	now func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(client CatalogClient, resolver *Resolver, edges EdgeStore) *Reconciler {
	return &Reconciler{
		catalog:  client,
		resolver: resolver,
		edges:    edges,
		now:      time.Now,
	}
}

// Reconcile fetches the related artists for root and reconciles the edge
// set. A root with no external catalog id cannot be looked up and is
// skipped. Per-related resolution and edge upserts are independent and
// run concurrently; the shared pass timestamp keeps the result
// deterministic for a given fetched order.
func (r *Reconciler) Reconcile(ctx context.Context, root *db.Artist, accessToken string) error {
	if root.SpotifyID == nil || *root.SpotifyID == "" {
		return nil
	}

	raws, err := r.catalog.RelatedArtists(ctx, accessToken, *root.SpotifyID)
	if err != nil {
		return fmt.Errorf("fetching related artists for %q: %w", root.Name, err)
	}
	if len(raws) == 0 {
		return nil
	}

	passTime := r.now()

	g, gctx := errgroup.WithContext(ctx)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			related, err := r.resolver.Resolve(gctx, raw)
			if err != nil {
				return fmt.Errorf("resolving related artist of %q: %w", root.Name, err)
			}

			existing, err := r.edges.Get(gctx, root.ID, related.ID)
			if err == nil {
				if err := r.edges.Touch(gctx, existing.ID, passTime); err != nil {
					return fmt.Errorf("touching edge %s -> %s: %w", root.Name, related.Name, err)
				}
				return nil
			}
			if !errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("looking up edge %s -> %s: %w", root.Name, related.Name, err)
			}

			createdAt := passTime.Add(-time.Duration(i) * time.Millisecond)
			_, err = r.edges.Create(gctx, &db.RelatedArtist{
				RootArtistID:    root.ID,
				RelatedArtistID: related.ID,
				Rank:            i + 1,
				CreatedAt:       createdAt,
				UpdatedAt:       createdAt,
			})
			if err != nil {
				return fmt.Errorf("creating edge %s -> %s: %w", root.Name, related.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
