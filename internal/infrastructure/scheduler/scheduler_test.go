package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/magelan-app/magelan/internal/infrastructure/scheduler"
)

type countingSweeper struct {
	calls      atomic.Int32
	staleAfter atomic.Int64
	err        error
}

func (s *countingSweeper) AutoDeliverStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	_ = ctx
	s.calls.Add(1)
	s.staleAfter.Store(int64(staleAfter))
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

func TestAutoDelivery_SweepsOnInterval(t *testing.T) {
	sweeper := &countingSweeper{}
	s := scheduler.NewAutoDelivery(sweeper, 10*time.Millisecond, time.Hour, zap.NewNop())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Hour), sweeper.staleAfter.Load())
}

func TestAutoDelivery_StopHaltsTheLoop(t *testing.T) {
	sweeper := &countingSweeper{}
	s := scheduler.NewAutoDelivery(sweeper, 10*time.Millisecond, time.Hour, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	after := sweeper.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, sweeper.calls.Load(), "no sweeps after stop")
}

func TestAutoDelivery_SweepErrorDoesNotKillLoop(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db down")}
	s := scheduler.NewAutoDelivery(sweeper, 10*time.Millisecond, time.Hour, zap.NewNop())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestAutoDelivery_StopWithoutStartReturns(t *testing.T) {
	s := scheduler.NewAutoDelivery(&countingSweeper{}, time.Hour, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started scheduler must not block")
	}
}

func TestAutoDelivery_StartAndStopAreIdempotent(t *testing.T) {
	sweeper := &countingSweeper{}
	s := scheduler.NewAutoDelivery(sweeper, time.Hour, time.Hour, zap.NewNop())

	s.Start(context.Background())
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
