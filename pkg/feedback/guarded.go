// pkg/feedback/guarded.go
package feedback

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-skymount/pkg/config"
	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/logging"
)

// Guarded turns a fallible Emitter into a Sink. Failures are counted by a
// circuit breaker; once it trips, effects are dropped without touching the
// emitter until the breaker's timeout elapses.
type Guarded struct {
	emitter Emitter
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	dropped atomic.Uint64
}

// NewGuarded wraps emitter with a circuit breaker configured from cfg
func NewGuarded(emitter Emitter, cfg config.FeedbackConfig, logger *logging.Logger) *Guarded {
	if logger == nil {
		logger = logging.Discard()
	}

	settings := gobreaker.Settings{
		Name:        "skymount-feedback",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Guarded{
		emitter: emitter,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

func (g *Guarded) SpawnParticle(at entity.ID, p Particle) {
	g.execute(at, "particle", func() error {
		return g.emitter.EmitParticle(context.Background(), at, p)
	})
}

func (g *Guarded) PlaySound(at entity.ID, sound string) {
	g.execute(at, "sound", func() error {
		return g.emitter.EmitSound(context.Background(), at, sound)
	})
}

// execute runs one emission through the breaker. Errors end here.
func (g *Guarded) execute(at entity.ID, kind string, emit func() error) {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, emit()
	})
	if err != nil {
		g.dropped.Add(1)
		g.logger.LogWithContext(context.Background(), slog.LevelDebug, "effect dropped",
			"entity_id", uint64(at),
			"kind", kind,
			"error", err,
			"state", g.breaker.State().String(),
		)
	}
}

// State returns the current circuit breaker state
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}

// Counts returns the breaker's request counters for the current interval
func (g *Guarded) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}

// Dropped returns how many effects were lost to emitter errors or an open breaker
func (g *Guarded) Dropped() uint64 {
	return g.dropped.Load()
}
