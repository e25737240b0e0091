package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// rawArtist builds a valid raw record for tests.
func rawArtist(name, id string) catalog.RawArtist {
	return catalog.RawArtist{
		ID:         id,
		URI:        "spotify:artist:" + id,
		Name:       name,
		Popularity: 42,
		Genres:     []string{"indie"},
		Followers:  &catalog.Followers{Total: 1000},
	}
}

type fakeCatalog struct {
	exchangeRefresh func(ctx context.Context, refreshToken string) (*catalog.Token, error)
	exchangeClient  func(ctx context.Context) (*catalog.Token, error)
	topArtists      func(ctx context.Context, accessToken string, limit int) ([]catalog.RawArtist, error)
	relatedArtists  func(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error)
}

func (f *fakeCatalog) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*catalog.Token, error) {
	if f.exchangeRefresh == nil {
		return nil, errors.New("unexpected ExchangeRefreshToken call")
	}
	return f.exchangeRefresh(ctx, refreshToken)
}

func (f *fakeCatalog) ExchangeClientCredentials(ctx context.Context) (*catalog.Token, error) {
	if f.exchangeClient == nil {
		return nil, errors.New("unexpected ExchangeClientCredentials call")
	}
	return f.exchangeClient(ctx)
}

func (f *fakeCatalog) TopArtists(ctx context.Context, accessToken string, limit int) ([]catalog.RawArtist, error) {
	if f.topArtists == nil {
		return nil, errors.New("unexpected TopArtists call")
	}
	return f.topArtists(ctx, accessToken, limit)
}

func (f *fakeCatalog) RelatedArtists(ctx context.Context, accessToken, artistID string) ([]catalog.RawArtist, error) {
	if f.relatedArtists == nil {
		return nil, errors.New("unexpected RelatedArtists call")
	}
	return f.relatedArtists(ctx, accessToken, artistID)
}

// fakeArtistStore is an in-memory ArtistStore keyed by name, with the
// same benign-race contract as the real repository.
type fakeArtistStore struct {
	mu      stdsync.Mutex
	byName  map[string]*db.Artist
	creates int
	updates int
}

func newFakeArtistStore() *fakeArtistStore {
	return &fakeArtistStore{byName: map[string]*db.Artist{}}
}

func (f *fakeArtistStore) GetByName(ctx context.Context, name string) (*db.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if artist, ok := f.byName[name]; ok {
		copied := *artist
		return &copied, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeArtistStore) Create(ctx context.Context, artist *db.Artist) (*db.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byName[artist.Name]; ok {
		copied := *existing
		return &copied, nil
	}
	if artist.ID == uuid.Nil {
		artist.ID = uuid.New()
	}
	artist.CreatedAt = time.Now()
	artist.UpdatedAt = artist.CreatedAt
	copied := *artist
	f.byName[artist.Name] = &copied
	f.creates++
	result := copied
	return &result, nil
}

func (f *fakeArtistStore) Update(ctx context.Context, artist *db.Artist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, existing := range f.byName {
		if existing.ID == artist.ID {
			copied := *artist
			f.byName[name] = &copied
			f.updates++
			return nil
		}
	}
	return db.ErrNotFound
}

type fakeUserStore struct {
	users      []db.User
	listErr    error
	cleared    []uuid.UUID
	lastSynced map[uuid.UUID]time.Time
}

func newFakeUserStore(users ...db.User) *fakeUserStore {
	return &fakeUserStore{users: users, lastSynced: map[uuid.UUID]time.Time{}}
}

func (f *fakeUserStore) List(ctx context.Context) ([]db.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeUserStore) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *fakeUserStore) UpdateLastSynced(ctx context.Context, id uuid.UUID, syncTime time.Time) error {
	f.lastSynced[id] = syncTime
	return nil
}

type fakeUserArtistStore struct {
	mu      stdsync.Mutex
	byUser  map[uuid.UUID][]db.UserArtist
	deletes int
}

func newFakeUserArtistStore() *fakeUserArtistStore {
	return &fakeUserArtistStore{byUser: map[uuid.UUID][]db.UserArtist{}}
}

func (f *fakeUserArtistStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, userID)
	f.deletes++
	return nil
}

func (f *fakeUserArtistStore) CreateBatch(ctx context.Context, userArtists []db.UserArtist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ua := range userArtists {
		if ua.ID == uuid.Nil {
			ua.ID = uuid.New()
		}
		f.byUser[ua.UserID] = append(f.byUser[ua.UserID], ua)
	}
	return nil
}

type edgeKey struct {
	root    uuid.UUID
	related uuid.UUID
}

type fakeEdgeStore struct {
	mu      stdsync.Mutex
	edges   map[edgeKey]*db.RelatedArtist
	creates int
	touches int
}

func newFakeEdgeStore() *fakeEdgeStore {
	return &fakeEdgeStore{edges: map[edgeKey]*db.RelatedArtist{}}
}

func (f *fakeEdgeStore) Get(ctx context.Context, rootID, relatedID uuid.UUID) (*db.RelatedArtist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edge, ok := f.edges[edgeKey{rootID, relatedID}]; ok {
		copied := *edge
		return &copied, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeEdgeStore) Create(ctx context.Context, edge *db.RelatedArtist) (*db.RelatedArtist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := edgeKey{edge.RootArtistID, edge.RelatedArtistID}
	if existing, ok := f.edges[key]; ok {
		copied := *existing
		return &copied, nil
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	copied := *edge
	f.edges[key] = &copied
	f.creates++
	result := copied
	return &result, nil
}

func (f *fakeEdgeStore) Touch(ctx context.Context, id uuid.UUID, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, edge := range f.edges {
		if edge.ID == id {
			edge.UpdatedAt = updatedAt
			f.touches++
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeEdgeStore) all() []db.RelatedArtist {
	f.mu.Lock()
	defer f.mu.Unlock()
	var edges []db.RelatedArtist
	for _, edge := range f.edges {
		edges = append(edges, *edge)
	}
	return edges
}
