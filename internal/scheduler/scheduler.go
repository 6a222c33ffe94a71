package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scrapline/internal/clock"
	dispatchdomain "github.com/smallbiznis/scrapline/internal/dispatch/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler requires dispatch service, clock and logger")

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	DispatchSvc dispatchdomain.Service
	Config      Config `optional:"true"`
}

// Scheduler retries deferred partner assignments on an interval. Bookings
// that stayed CONFIRMED because no partner was active get picked up here.
type Scheduler struct {
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	dispatchSvc dispatchdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.DispatchSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:         p.Log.Named("scheduler"),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		dispatchSvc: p.DispatchSvc,
	}, nil
}

// RunForever runs the assignment sweep until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", s.cfg.RunInterval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunAssignSweep(ctx)
		}
	}
}

// RunAssignSweep runs one bounded assignment pass.
func (s *Scheduler) RunAssignSweep(parent context.Context) {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	assigned, err := s.dispatchSvc.SweepUnassigned(ctx, s.cfg.BatchSize)
	if err != nil {
		s.log.Error("assignment sweep failed", zap.Error(err))
		return
	}
	if assigned > 0 {
		s.log.Info("assignment sweep finished",
			zap.Int("assigned", assigned),
			zap.Duration("elapsed", s.clock.Now().Sub(start)),
		)
	}
}
