// Package daemon runs the batch sync on a fixed interval.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/blackboxrecordclub/artist-sync/internal/sync"
)

const (
	// DefaultInterval is the time between batch passes.
	DefaultInterval = 24 * time.Hour

	// maxPassFailures mirrors the per-user circuit breaker at the pass
	// level: the daemon exits on this many failed passes in a row.
	maxPassFailures = 6

	// failureDelay is the pause before retrying a failed pass.
	failureDelay = 5 * time.Second
)

// Driver runs one batch pass.
type Driver interface {
	RunSync(ctx context.Context) (*sync.Report, error)
}

// Daemon invokes the batch driver on a fixed interval, forever. It owns
// process exit behavior: a tripped circuit breaker or too many failed
// passes in a row surfaces as an error, and main exits non-zero.
type Daemon struct {
	driver   Driver
	interval time.Duration

	logf  func(format string, args ...any)
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Daemon. Pass interval <= 0 for the default.
func New(driver Driver, interval time.Duration) *Daemon {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Daemon{
		driver:   driver,
		interval: interval,
		logf:     log.Printf,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run loops until the context is canceled or a fatal condition occurs.
func (d *Daemon) Run(ctx context.Context) error {
	failures := 0
	for {
		start := time.Now()
		d.logf("sync beginning at [%s]", start.Format(time.RFC3339))

		report, err := d.driver.RunSync(ctx)
		switch {
		case errors.Is(err, sync.ErrTooManyFailures):
			return err
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			failures++
			if failures >= maxPassFailures {
				return fmt.Errorf("%d consecutive failed passes: %w", failures, err)
			}
			d.logf("uncaught error from sync, resetting (%d of %d): %v", failures, maxPassFailures, err)
			if err := d.sleep(ctx, failureDelay); err != nil {
				return err
			}
			continue
		}

		failures = 0
		d.logf("sync finished in %s: %d users (%d synced, %d failed), %d artists (%d failed)",
			report.Duration.Round(time.Millisecond),
			report.Users, report.SyncedUsers, report.FailedUsers,
			report.TouchedArtists, report.FailedArtists)
		d.logf("next sync at approximately [%s]", time.Now().Add(d.interval).Format(time.RFC3339))

		if err := d.sleep(ctx, d.interval); err != nil {
			return err
		}
	}
}
