package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

// MaxConsecutiveFailures is the per-user circuit breaker: the batch
// aborts when this many users in a row fail with unrecovered errors.
const MaxConsecutiveFailures = 6

// progressInterval gates progress output to at most one line per interval.
const progressInterval = 30 * time.Second

// ErrTooManyFailures signals the circuit breaker tripped; the scheduling
// wrapper exits the process rather than continuing in a broken state.
var ErrTooManyFailures = errors.New("too many consecutive sync failures")

// UserSyncer is the per-user orchestration surface the driver calls.
type UserSyncer interface {
	SyncUser(ctx context.Context, user *db.User) ([]db.Artist, error)
}

// EdgeReconciler refreshes one root artist's relationship edges.
type EdgeReconciler interface {
	Reconcile(ctx context.Context, root *db.Artist, accessToken string) error
}

// Report summarizes one batch pass.
type Report struct {
	Users          int
	SyncedUsers    int
	FailedUsers    int
	TouchedArtists int
	FailedArtists  int
	Duration       time.Duration
}

// Driver runs one full batch pass: every user in listing order, then one
// relationship-reconciliation pass over the deduplicated set of artists
// touched this run.
type Driver struct {
	users      UserStore
	syncer     UserSyncer
	reconciler EdgeReconciler
	catalog    CatalogClient

	logf func(format string, args ...any)
	now  func() time.Time
}

// NewDriver creates a batch Driver.
func NewDriver(users UserStore, syncer UserSyncer, reconciler EdgeReconciler, client CatalogClient) *Driver {
	return &Driver{
		users:      users,
		syncer:     syncer,
		reconciler: reconciler,
		catalog:    client,
		logf:       log.Printf,
		now:        time.Now,
	}
}

// RunSync executes one batch pass. Per-user failures other than the
// absorbed invalid-grant case count toward the circuit breaker but do not
// stop the pass; a success resets the counter. Per-artist reconciliation
// failures are logged and counted, and the graph pass continues, since
// one broken artist must not block the rest of the refresh.
func (d *Driver) RunSync(ctx context.Context) (*Report, error) {
	start := d.now()

	users, err := d.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	report := &Report{Users: len(users)}
	d.logf("updating %d users", len(users))

	progress := newProgressLogger(d.logf, d.now)
	consecutiveFailures := 0

	var (
		touched []db.Artist
		seen    = map[string]bool{}
	)
	for i := range users {
		progress.maybeLog("user sync", i+1, len(users))

		artists, err := d.syncer.SyncUser(ctx, &users[i])
		if err != nil {
			consecutiveFailures++
			report.FailedUsers++
			d.logf("sync failed for %s (%d consecutive): %v", users[i].Email, consecutiveFailures, err)
			if consecutiveFailures >= MaxConsecutiveFailures {
				return nil, fmt.Errorf("%w: %d users in a row, last %s", ErrTooManyFailures, consecutiveFailures, users[i].Email)
			}
			continue
		}
		consecutiveFailures = 0
		if len(artists) > 0 {
			report.SyncedUsers++
		}
		for _, artist := range artists {
			if seen[artist.Name] {
				continue
			}
			seen[artist.Name] = true
			touched = append(touched, artist)
		}
	}

	report.TouchedArtists = len(touched)
	d.logf("updating %d artist-artist relations", len(touched))

	token, err := d.catalog.ExchangeClientCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchanging service credential: %w", err)
	}

	// Sequential artist-by-artist to keep the upstream request rate
	// bounded; concurrency lives inside each reconciliation pass.
	progress.reset()
	for i := range touched {
		progress.maybeLog("relation sync", i+1, len(touched))

		if err := d.reconciler.Reconcile(ctx, &touched[i], token.AccessToken); err != nil {
			report.FailedArtists++
			d.logf("relation sync failed for %q: %v", touched[i].Name, err)
		}
	}

	report.Duration = d.now().Sub(start)
	return report, nil
}

// progressLogger emits elapsed-time-gated progress lines.
type progressLogger struct {
	logf      func(format string, args ...any)
	now       func() time.Time
	lastPrint time.Time
}

func newProgressLogger(logf func(format string, args ...any), now func() time.Time) *progressLogger {
	return &progressLogger{logf: logf, now: now}
}

func (p *progressLogger) reset() {
	p.lastPrint = time.Time{}
}

func (p *progressLogger) maybeLog(label string, i, total int) {
	now := p.now()
	if !p.lastPrint.IsZero() && now.Sub(p.lastPrint) < progressInterval {
		return
	}
	p.lastPrint = now
	p.logf("%s: %d%% complete (%d of %d)", label, i*100/total, i, total)
}
