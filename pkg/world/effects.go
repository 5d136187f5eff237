// pkg/world/effects.go
package world

import (
	"context"
	"fmt"

	"github.com/opd-ai/go-skymount/pkg/entity"
	"github.com/opd-ai/go-skymount/pkg/feedback"
)

// effectLog is a fixed-size ring of the most recent effects
type effectLog struct {
	buf   []feedback.Effect
	next  int
	total uint64
}

func newEffectLog(size int) *effectLog {
	if size < 1 {
		size = 1
	}
	return &effectLog{buf: make([]feedback.Effect, 0, size)}
}

func (l *effectLog) add(e feedback.Effect) {
	l.total++
	if len(l.buf) < cap(l.buf) {
		l.buf = append(l.buf, e)
		return
	}
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
}

// ordered returns the retained effects oldest first
func (l *effectLog) ordered() []feedback.Effect {
	out := make([]feedback.Effect, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}

func (w *World) knows(id entity.ID) bool {
	if _, ok := w.mounts[id]; ok {
		return true
	}
	_, ok := w.riders[id]
	return ok
}

// EmitParticle records a particle at an entity. It fails for entities that
// are not, or no longer, in the world.
func (w *World) EmitParticle(ctx context.Context, at entity.ID, p feedback.Particle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.knows(at) {
		return fmt.Errorf("particle %s at %d: %w", p.Name, at, ErrUnknownEntity)
	}
	w.effects.add(feedback.Effect{Kind: feedback.KindParticle, At: at, Particle: p})
	return nil
}

// EmitSound records a sound at an entity. It fails like EmitParticle.
func (w *World) EmitSound(ctx context.Context, at entity.ID, sound string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.knows(at) {
		return fmt.Errorf("sound %s at %d: %w", sound, at, ErrUnknownEntity)
	}
	w.effects.add(feedback.Effect{Kind: feedback.KindSound, At: at, Sound: sound})
	return nil
}

// Effects returns the most recent effects, oldest first
func (w *World) Effects() []feedback.Effect {
	return w.effects.ordered()
}

// EffectsTotal returns how many effects were ever recorded
func (w *World) EffectsTotal() uint64 {
	return w.effects.total
}
