// pkg/feedback/feedback.go

// Package feedback carries the fire-and-forget visual and audio effects a
// flight produces. The flight core only ever sees a Sink; hosts plug in
// whatever output they have behind it.
package feedback

import (
	"context"
	"sync"

	"github.com/opd-ai/go-skymount/pkg/entity"
)

// Color is an RGB colour with channels in [0, 1]
type Color struct {
	R float64
	G float64
	B float64
}

// Particle is a named particle effect with a tint
type Particle struct {
	Name  string
	Color Color
}

// Kind distinguishes the effect types
type Kind int

const (
	KindParticle Kind = iota
	KindSound
)

// String returns the lowercase effect kind name
func (k Kind) String() string {
	switch k {
	case KindParticle:
		return "particle"
	case KindSound:
		return "sound"
	default:
		return "unknown"
	}
}

// Effect is one emitted particle or sound, anchored at an entity
type Effect struct {
	Kind     Kind
	At       entity.ID
	Particle Particle
	Sound    string
}

// Sink receives effects. Implementations must not block and never report
// failures back to the caller.
type Sink interface {
	SpawnParticle(at entity.ID, p Particle)
	PlaySound(at entity.ID, sound string)
}

// Emitter is a host output that can fail, e.g. because the anchor entity
// no longer exists. Wrap it with NewGuarded to obtain a Sink.
type Emitter interface {
	EmitParticle(ctx context.Context, at entity.ID, p Particle) error
	EmitSound(ctx context.Context, at entity.ID, sound string) error
}

// Nop discards every effect
type Nop struct{}

func (Nop) SpawnParticle(entity.ID, Particle) {}
func (Nop) PlaySound(entity.ID, string)       {}

// Multi fans every effect out to each sink in order
type Multi []Sink

func (m Multi) SpawnParticle(at entity.ID, p Particle) {
	for _, s := range m {
		s.SpawnParticle(at, p)
	}
}

func (m Multi) PlaySound(at entity.ID, sound string) {
	for _, s := range m {
		s.PlaySound(at, sound)
	}
}

// Recorder keeps every effect it receives. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	effects []Effect
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SpawnParticle(at entity.ID, p Particle) {
	r.record(Effect{Kind: KindParticle, At: at, Particle: p})
}

func (r *Recorder) PlaySound(at entity.ID, sound string) {
	r.record(Effect{Kind: KindSound, At: at, Sound: sound})
}

func (r *Recorder) record(e Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = append(r.effects, e)
}

// Effects returns a copy of the recorded effects
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Count returns how many effects of the given kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.effects {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets all recorded effects
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = nil
}
