package sync

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

func testRoot(name, spotifyID string) *db.Artist {
	id := spotifyID
	return &db.Artist{ID: uuid.New(), Name: name, SpotifyID: &id}
}

func newTestReconciler(client CatalogClient, edges EdgeStore, artists ArtistStore, passTime time.Time) *Reconciler {
	r := NewReconciler(client, NewResolver(artists), edges)
	r.now = func() time.Time { return passTime }
	return r
}

func TestReconcileCreatesRankedEdges(t *testing.T) {
	related := []catalog.RawArtist{
		rawArtist("Alpha", "a"),
		rawArtist("Beta", "b"),
		rawArtist("Gamma", "c"),
	}
	client := &fakeCatalog{
		relatedArtists: func(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error) {
			return related, nil
		},
	}
	edges := newFakeEdgeStore()
	passTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reconciler := newTestReconciler(client, edges, newFakeArtistStore(), passTime)

	root := testRoot("Root", "root-id")
	if err := reconciler.Reconcile(context.Background(), root, "token"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	all := edges.all()
	if len(all) != 3 {
		t.Fatalf("edges = %d, want 3", len(all))
	}

	// Sorted by createdAt descending, relevance order comes back.
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	for i, wantRank := range []int{1, 2, 3} {
		if all[i].Rank != wantRank {
			t.Errorf("edge %d rank = %d, want %d", i, all[i].Rank, wantRank)
		}
		wantCreated := passTime.Add(-time.Duration(i) * time.Millisecond)
		if !all[i].CreatedAt.Equal(wantCreated) {
			t.Errorf("edge %d createdAt = %s, want %s", i, all[i].CreatedAt, wantCreated)
		}
	}
}

func TestReconcileTwiceKeepsEdgesUnique(t *testing.T) {
	related := []catalog.RawArtist{
		rawArtist("Alpha", "a"),
		rawArtist("Beta", "b"),
	}
	client := &fakeCatalog{
		relatedArtists: func(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error) {
			return related, nil
		},
	}
	edges := newFakeEdgeStore()
	artists := newFakeArtistStore()

	firstPass := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	secondPass := firstPass.Add(24 * time.Hour)
	root := testRoot("Root", "root-id")
	ctx := context.Background()

	if err := newTestReconciler(client, edges, artists, firstPass).Reconcile(ctx, root, "token"); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	if err := newTestReconciler(client, edges, artists, secondPass).Reconcile(ctx, root, "token"); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}

	all := edges.all()
	if len(all) != 2 {
		t.Fatalf("edges = %d, want 2 (one per pair)", len(all))
	}
	if edges.creates != 2 {
		t.Errorf("creates = %d, want 2", edges.creates)
	}
	if edges.touches != 2 {
		t.Errorf("touches = %d, want 2", edges.touches)
	}
	for _, edge := range all {
		if !edge.UpdatedAt.Equal(secondPass) {
			t.Errorf("edge updatedAt = %s, want refreshed to %s", edge.UpdatedAt, secondPass)
		}
		if edge.UpdatedAt.Equal(edge.CreatedAt) {
			t.Error("second pass should not rewrite createdAt")
		}
	}
}

func TestReconcileNoRelatedArtists(t *testing.T) {
	client := &fakeCatalog{
		relatedArtists: func(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error) {
			return nil, nil
		},
	}
	edges := newFakeEdgeStore()
	reconciler := newTestReconciler(client, edges, newFakeArtistStore(), time.Now())

	if err := reconciler.Reconcile(context.Background(), testRoot("Loner", "l1"), "token"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(edges.all()) != 0 {
		t.Error("no edges expected for an artist with no relations")
	}
}

func TestReconcileSkipsRootWithoutCatalogID(t *testing.T) {
	client := &fakeCatalog{} // any catalog call would error
	reconciler := newTestReconciler(client, newFakeEdgeStore(), newFakeArtistStore(), time.Now())

	root := &db.Artist{ID: uuid.New(), Name: "Legacy Entry"}
	if err := reconciler.Reconcile(context.Background(), root, "token"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
}

func TestReconcileFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("upstream down")
	client := &fakeCatalog{
		relatedArtists: func(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error) {
			return nil, fetchErr
		},
	}
	reconciler := newTestReconciler(client, newFakeEdgeStore(), newFakeArtistStore(), time.Now())

	err := reconciler.Reconcile(context.Background(), testRoot("Root", "r1"), "token")
	if !errors.Is(err, fetchErr) {
		t.Fatalf("err = %v, want wrapped fetch error", err)
	}
}
