package flight

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opd-ai/go-skymount/pkg/physics"
)

func randomDirection(r *rand.Rand) physics.Vector3 {
	for {
		v := physics.Vector3{X: r.Float64()*2 - 1, Y: r.Float64()*2 - 1, Z: r.Float64()*2 - 1}
		if v.Length() > 0.1 {
			return v
		}
	}
}

func TestBoostImpulse_StraightUp(t *testing.T) {
	c := DefaultConstants()
	for _, velocity := range []physics.Vector3{{}, {Y: 1}, {X: 1}, {Y: -2}, {X: 0.3, Y: -0.1, Z: 0.7}} {
		impulse := BoostImpulse(c, physics.Up, velocity)
		assert.Greater(t, impulse.Y, 0.0, "velocity %v", velocity)
		assert.InDelta(t, c.RocketThrust, impulse.Length(), 1e-12, "velocity %v", velocity)
		assert.InDelta(t, 0, impulse.X, 1e-12)
		assert.InDelta(t, 0, impulse.Z, 1e-12)
	}
}

func TestBoostImpulse_MagnitudeIsThrust(t *testing.T) {
	c := DefaultConstants()
	r := rand.New(rand.NewPCG(21, 22))
	for i := 0; i < 1000; i++ {
		aim, velocity := randomDirection(r), randomDirection(r).Scale(3)
		impulse := BoostImpulse(c, aim, velocity)

		if !assert.InDelta(t, c.RocketThrust, impulse.Length(), 1e-9, "aim %v velocity %v", aim, velocity) {
			return
		}

		// horizontal thrust follows the horizontal aim
		h, a := impulse.Horizontal(), aim.Horizontal()
		assert.InDelta(t, 0, h.Cross(a).Length(), 1e-9)
		assert.GreaterOrEqual(t, h.Dot(a), 0.0)
	}
}

func TestBoostImpulse_ResultantFollowsAimWhenAligned(t *testing.T) {
	c := DefaultConstants()
	r := rand.New(rand.NewPCG(23, 24))
	for i := 0; i < 500; i++ {
		aim := randomDirection(r)
		if math.Abs(aim.Y) < 1e-3 {
			continue
		}
		// moving along the aim, gravity compensation is exactly g
		resultant := BoostImpulse(c, aim, aim.Scale(2)).Sub(physics.Vector3{Y: c.Gravity})
		assert.InDelta(t, 0, resultant.Cross(aim).Length(), 1e-9, "aim %v", aim)
		assert.Greater(t, resultant.Dot(aim), 0.0, "aim %v", aim)
	}
}

func TestBoostImpulse_Descending(t *testing.T) {
	c := DefaultConstants()
	aim := physics.Vector3{X: 1, Y: -1}
	impulse := BoostImpulse(c, aim, aim)

	assert.Greater(t, impulse.X, 0.0)
	assert.Less(t, impulse.Y, 0.0)
	assert.InDelta(t, c.RocketThrust, impulse.Length(), 1e-12)
}

func TestBoostImpulse_HorizontalAim(t *testing.T) {
	c := DefaultConstants()
	impulse := BoostImpulse(c, physics.Vector3{Z: -4}, physics.Vector3{Z: -1})

	want := physics.Vector3{Y: c.Gravity, Z: -math.Sqrt(c.RocketThrust*c.RocketThrust - c.Gravity*c.Gravity)}
	assert.True(t, impulse.ApproxEqual(want, 1e-6), "got %v want %v", impulse, want)
	assert.True(t, impulse.IsFinite())
}

func TestBoostImpulse_ZeroAimStaysFinite(t *testing.T) {
	impulse := BoostImpulse(DefaultConstants(), physics.Zero, physics.Zero)
	assert.True(t, impulse.IsFinite())
	assert.InDelta(t, 0, impulse.Horizontal().Length(), 1e-12)
}

func TestGlideImpulse(t *testing.T) {
	c := DefaultConstants()
	east := physics.Vector3{X: 1}
	tests := []struct {
		name     string
		nose     physics.Vector3
		last     physics.Vector3
		grounded bool
		want     physics.Vector3
	}{
		{
			name: "level_flight",
			nose: east,
			last: physics.Vector3{X: 1},
			want: physics.Vector3{X: 0.995, Y: 0.05 - 0.0784},
		},
		{
			name:     "grounded_level",
			nose:     east,
			last:     physics.Vector3{X: 1},
			grounded: true,
			want:     physics.Vector3{X: 0.95, Y: 0.005 - 0.0784},
		},
		{
			name: "slow_forward_snaps",
			nose: east,
			last: physics.Vector3{X: 0.005},
			// lift uses the forward speed before it snaps
			want: physics.Vector3{Y: 0.005*0.05 - 0.0784},
		},
		{
			name: "rightward_side_drag",
			nose: east,
			last: physics.Vector3{X: 1, Z: -0.5},
			want: physics.Vector3{X: 0.995, Y: 0.05 - 0.0784, Z: -0.49},
		},
		{
			name: "leftward_side_snaps",
			nose: east,
			last: physics.Vector3{X: 1, Z: 0.5},
			want: physics.Vector3{X: 0.995, Y: 0.05 - 0.0784},
		},
		{
			name: "wing_drag",
			nose: east,
			last: physics.Vector3{Y: 1},
			want: physics.Vector3{Y: 0.8 - 0.0784},
		},
		{
			name: "resting",
			nose: physics.Vector3{X: 1, Z: 1},
			last: physics.Zero,
			want: physics.Vector3{Y: -0.0784},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GlideImpulse(c, tt.nose, tt.last, tt.grounded)
			assert.True(t, got.ApproxEqual(tt.want, 1e-12), "got %v want %v", got, tt.want)
		})
	}
}

func TestGlideImpulse_Deterministic(t *testing.T) {
	c := DefaultConstants()
	r := rand.New(rand.NewPCG(25, 26))
	for i := 0; i < 200; i++ {
		nose, last := randomDirection(r), randomDirection(r).Scale(2)
		grounded := i%3 == 0
		a := GlideImpulse(c, nose, last, grounded)
		b := GlideImpulse(c, nose, last, grounded)
		assert.True(t, a.Equals(b), "%v != %v", a, b)
	}
}

func TestGlideImpulse_TurnedNoseChangesDrag(t *testing.T) {
	c := DefaultConstants()
	last := physics.Vector3{X: 1}
	aligned := GlideImpulse(c, physics.Vector3{X: 1}, last, false)
	crossways := GlideImpulse(c, physics.Vector3{Z: 1}, last, false)

	// flying sideways loses more speed than flying nose first
	assert.Greater(t, aligned.Horizontal().Length(), crossways.Horizontal().Length())
}
