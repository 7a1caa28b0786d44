// Package retention holds the periodic maintenance jobs: expiring old
// messages and rotating the daily question.
package retention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"openchat/internal/clock"
	"openchat/internal/metrics"
)

// Purger deletes messages created before a cutoff.
type Purger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Rotator activates the next daily question when it is due.
type Rotator interface {
	EnsureCurrent(ctx context.Context) (bool, error)
}

type Jobs struct {
	purger  Purger
	rotator Rotator
	period  time.Duration
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

func New(purger Purger, rotator Rotator, period time.Duration, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) *Jobs {
	if clk == nil {
		clk = clock.Real()
	}
	return &Jobs{
		purger:  purger,
		rotator: rotator,
		period:  period,
		clock:   clk,
		metrics: m,
		logger:  logger.Sugar(),
	}
}

// PurgeExpired removes messages older than the retention period.
// A non-positive period keeps history forever.
func (j *Jobs) PurgeExpired(ctx context.Context) error {
	if j.period <= 0 {
		return nil
	}
	cutoff := j.clock.Now().Add(-j.period)
	n, err := j.purger.PurgeOlderThan(ctx, cutoff)
	if n > 0 && j.metrics != nil {
		j.metrics.RetentionPurged.Add(float64(n))
	}
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Infow("Expired messages purged", "count", n, "cutoff", cutoff.UTC())
	}
	return nil
}

func (j *Jobs) RotateQuestion(ctx context.Context) error {
	_, err := j.rotator.EnsureCurrent(ctx)
	return err
}
