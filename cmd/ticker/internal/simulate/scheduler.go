package simulate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tonecapon3/stock-ticker-v2-sub001/cmd/ticker/internal/session"
	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// TickSink receives the tick events produced by applied simulation steps.
type TickSink interface {
	Publish(ctx context.Context, events []models.TickEvent) error
}

// Scheduler runs one ticker goroutine per session. Sessions never share a
// timer: pausing or re-timing one has no effect on any other.
type Scheduler struct {
	ctx     context.Context
	stepper Stepper
	clock   Clock
	sink    TickSink // nil when the feed is disabled
	logger  *zap.Logger
	wg      sync.WaitGroup

	// OnTick fires after a session applied at least one price move. Set
	// once during wiring, before any session exists.
	OnTick func(s *session.Session)
}

func NewScheduler(ctx context.Context, stepper Stepper, clock Clock, sink TickSink, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		stepper: stepper,
		clock:   clock,
		sink:    sink,
		logger:  logger,
	}
}

// Attach starts the simulation loop for a freshly created session. Wired as
// the store's onCreate hook.
func (sc *Scheduler) Attach(s *session.Session) {
	sc.wg.Add(1)
	go sc.run(s)
}

// Wait blocks until every session loop has observed cancellation.
func (sc *Scheduler) Wait() {
	sc.wg.Wait()
}

func (sc *Scheduler) run(s *session.Session) {
	defer sc.wg.Done()

	// Local state for feed sequencing (one goroutine per session, no lock).
	seq := make(map[string]int64)

	last := sc.clock.Now()
	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-sc.ctx.Done():
			sc.logger.Debug("Scheduler stopped", zap.String("session", s.Key()))
			return
		case <-timer.C:
		}

		now := sc.clock.Now()
		elapsed := now.Sub(last)
		last = now

		applied, skipped := s.Tick(sc.stepper.Step, elapsed, now.UnixMicro())
		for _, sym := range skipped {
			sc.logger.Warn("Skipping corrupt perturbation",
				zap.String("session", s.Key()), zap.String("symbol", sym))
		}

		if len(applied) > 0 {
			sc.publish(s.Key(), applied, seq, now.UnixMicro())
			if sc.OnTick != nil {
				sc.OnTick(s)
			}
		}

		// Re-read the interval so control updates apply on the next cycle.
		timer.Reset(s.Interval())
	}
}

func (sc *Scheduler) publish(sessionKey string, applied []session.TickResult, seq map[string]int64, now int64) {
	if sc.sink == nil {
		return
	}

	events := make([]models.TickEvent, 0, len(applied))
	for _, res := range applied {
		seq[res.Symbol]++
		events = append(events, models.TickEvent{
			SessionKey: sessionKey,
			Symbol:     res.Symbol,
			Price:      res.Price,
			Timestamp:  now,
			SeqID:      seq[res.Symbol],
		})
	}

	if err := sc.sink.Publish(sc.ctx, events); err != nil {
		sc.logger.Error("Tick feed publish failed",
			zap.String("session", sessionKey), zap.Error(err))
	}
}
