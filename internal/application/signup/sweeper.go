package signup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/keepsake-api/internal/observability/metrics"
	"github.com/robfig/cron/v3"
)

const sweepTimeout = 2 * time.Minute

type expiredDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper deletes pending signups that expired more than retention ago.
// Expiry itself is still enforced at finalize time; the sweeper only keeps
// abandoned attempts from accumulating.
type Sweeper struct {
	store     expiredDeleter
	retention time.Duration
	now       func() time.Time
}

func NewSweeper(store expiredDeleter, retention time.Duration) *Sweeper {
	return &Sweeper{store: store, retention: retention, now: time.Now}
}

// Sweep runs one pass and returns how many records were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.store.DeleteExpired(ctx, cutoff)
	metrics.PendingSignupsSweptTotal.Add(float64(n))
	if err != nil {
		return n, fmt.Errorf("sweep pending signups: %w", err)
	}
	return n, nil
}

// Schedule registers Sweep on c under the cron spec.
func (s *Sweeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		n, err := s.Sweep(ctx)
		if err != nil {
			slog.Error("pending signup sweep failed", "deleted", n, "err", err)
			return
		}
		slog.Info("pending signup sweep completed", "deleted", n)
	})
}
