package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openchat/internal/clock"
	"openchat/internal/metrics"
)

type purgeFunc func(ctx context.Context, cutoff time.Time) (int, error)

func (f purgeFunc) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return f(ctx, cutoff)
}

type countingRotator struct{ calls int }

func (r *countingRotator) EnsureCurrent(context.Context) (bool, error) {
	r.calls++
	return r.calls == 1, nil
}

var now = time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

func TestPurgeExpiredUsesPeriodCutoff(t *testing.T) {
	var got time.Time
	m := metrics.New()
	j := New(purgeFunc(func(_ context.Context, cutoff time.Time) (int, error) {
		got = cutoff
		return 7, nil
	}), nil, 24*time.Hour, clock.Fake(now), m, zap.NewNop())

	require.NoError(t, j.PurgeExpired(context.Background()))
	assert.Equal(t, now.Add(-24*time.Hour), got)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RetentionPurged))
}

func TestPurgeExpiredCountsPartialProgress(t *testing.T) {
	m := metrics.New()
	j := New(purgeFunc(func(context.Context, time.Time) (int, error) {
		return 200, errors.New("connection lost")
	}), nil, time.Hour, clock.Fake(now), m, zap.NewNop())

	assert.Error(t, j.PurgeExpired(context.Background()))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.RetentionPurged))
}

func TestPurgeExpiredDisabled(t *testing.T) {
	j := New(purgeFunc(func(context.Context, time.Time) (int, error) {
		t.Fatal("purge must not run")
		return 0, nil
	}), nil, 0, clock.Fake(now), nil, zap.NewNop())

	assert.NoError(t, j.PurgeExpired(context.Background()))
}

func TestRotateQuestion(t *testing.T) {
	r := &countingRotator{}
	j := New(nil, r, time.Hour, nil, nil, zap.NewNop())

	require.NoError(t, j.RotateQuestion(context.Background()))
	require.NoError(t, j.RotateQuestion(context.Background()))
	assert.Equal(t, 2, r.calls)
}
