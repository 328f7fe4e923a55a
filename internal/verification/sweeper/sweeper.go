// Package sweeper opportunistically transitions stale otp_sent records to
// expired. Lazy expiry at verify time is the correctness contract; the
// sweeper only keeps the read model tidy and is off unless an interval is
// configured.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"praman/internal/audit"
	"praman/internal/verification"
	"praman/internal/verification/metrics"
	"praman/internal/verification/store"
	"praman/pkg/platform/sentinel"
)

const batchSize = 100

// Sweeper periodically marks stale otp_sent records as expired.
type Sweeper struct {
	store    store.Store
	audits   *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// New creates a sweeper running at the given interval.
func New(st store.Store, audits *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    st,
		audits:   audits,
		metrics:  m,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps until the context is canceled. It never returns a sweep error;
// failures are logged and retried at the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				s.logger.InfoContext(ctx, "expired stale otp sessions", "count", swept)
			}
		}
	}
}

// SweepOnce expires one batch of stale records and returns how many moved.
// Records that lose the conditional write were touched concurrently (most
// likely lazily expired by a verify) and are skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.store.ListStaleOTPSent(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, record := range stale {
		record.Status = verification.StatusExpired
		record.UpdatedAt = now
		record.AppendAudit(verification.ActionExpired, "system", "", now, nil)

		err := s.store.Update(ctx, record)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return swept, err
		}
		swept++
		s.metrics.SweptExpired.Inc()
		if s.audits != nil {
			s.audits.Emit(ctx, audit.Event{
				UserID:  record.UserID,
				Action:  audit.ActionVerificationExpired,
				Subject: record.MaskedID,
				Outcome: string(verification.StatusExpired),
			})
		}
	}
	return swept, nil
}
