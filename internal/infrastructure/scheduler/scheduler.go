// Package scheduler runs the periodic auto-delivery sweep: confirmed orders
// older than the staleness threshold are force-advanced to delivered.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the slice of the order service the scheduler needs.
type Sweeper interface {
	AutoDeliverStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

type AutoDelivery struct {
	sweeper    Sweeper
	interval   time.Duration
	staleAfter time.Duration
	log        *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewAutoDelivery(sweeper Sweeper, interval, staleAfter time.Duration, logger *zap.Logger) *AutoDelivery {
	if logger == nil {
		logger = zap.L()
	}
	return &AutoDelivery{
		sweeper:    sweeper,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger.With(zap.String("component", "auto_delivery_scheduler")),
		done:       make(chan struct{}),
	}
}

// Start launches the sweep loop. A run that finds nothing is a normal,
// frequent outcome and is only logged at debug level by the service.
func (s *AutoDelivery) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		bg, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.run(bg)
		s.log.Info("scheduler_started",
			zap.Duration("interval", s.interval),
			zap.Duration("stale_after", s.staleAfter),
		)
	})
}

// Stop halts the loop and waits for an in-flight sweep to finish.
// Stopping a scheduler that never started returns immediately.
func (s *AutoDelivery) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			close(s.done)
		} else {
			s.cancel()
		}
		<-s.done
		s.log.Info("scheduler_stopped")
	})
}

func (s *AutoDelivery) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *AutoDelivery) sweep(ctx context.Context) {
	delivered, err := s.sweeper.AutoDeliverStale(ctx, s.staleAfter)
	if err != nil {
		s.log.Error("sweep_failed", zap.Error(err))
		return
	}
	if delivered > 0 {
		s.log.Info("sweep_done", zap.Int("delivered", delivered))
	}
}
