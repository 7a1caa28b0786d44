package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"openchat/internal/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var noon = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNewRejectsInvalidCron(t *testing.T) {
	_, err := New("retention", "every ten minutes", func(context.Context) error { return nil }, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	s, err := New("retention", "*/10 * * * *", func(context.Context) error { return nil }, nil, zap.NewNop())
	require.NoError(t, err)

	next, err := s.Next(noon)
	require.NoError(t, err)
	assert.Equal(t, noon.Add(10*time.Minute), next)

	next, err = s.Next(noon.Add(3 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, noon.Add(10*time.Minute), next)
}

func TestSchedulerRunsOnEveryTick(t *testing.T) {
	clk := clock.Fake(noon)
	var runs atomic.Int32
	s, err := New("question", "0 * * * *", func(context.Context) error {
		runs.Add(1)
		return errors.New("keeps going after failures")
	}, clk, zap.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	for i := 1; i <= 3; i++ {
		require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
		clk.Advance(time.Hour)
		want := int32(i)
		require.Eventually(t, func() bool { return runs.Load() == want }, time.Second, time.Millisecond)
	}
}

func TestSchedulerDoesNotRunBeforeTick(t *testing.T) {
	clk := clock.Fake(noon)
	var runs atomic.Int32
	s, err := New("retention", "*/10 * * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}, clk, zap.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
	clk.Advance(9 * time.Minute)
	s.Stop()

	assert.Zero(t, runs.Load())
	s.Stop()
}
