package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// degenerateLength is the vector length below which a direction is treated
// as zero and cannot be normalized.
const degenerateLength = 1e-9

// Source supplies the randomness used by the motion models. *rand.Rand
// satisfies it.
type Source interface {
	Float64() float64
}

// Agent represents one car moving in a scene.
type Agent struct {
	ID    uuid.UUID
	Name  string
	Color [3]float64

	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Heading  Heading

	// FramesUntilChange counts down to the next random re-heading.
	FramesUntilChange int
	// Reheadings counts how many times the heading was re-randomized.
	Reheadings int
	// Battery is set once for random-walk agents and only surfaced on
	// inspection.
	Battery int
	// Progress is the path parameter of a path follower.
	Progress float64
}

// NewAgent creates a stationary agent at position.
func NewAgent(name string, color [3]float64, position mgl64.Vec3) *Agent {
	return &Agent{
		ID:       uuid.New(),
		Name:     name,
		Color:    color,
		Position: position,
	}
}

// Advance moves the agent by one velocity step.
func (a *Agent) Advance() {
	a.Position = a.Position.Add(a.Velocity)
}

// Heading is the facing of an agent. Yaw turns around +Y starting from +Z
// towards +X; Pitch raises the nose towards +Y.
type Heading struct {
	Yaw   float64
	Pitch float64
}

// Toward returns the heading that looks from eye at target. When both points
// coincide the current heading is kept.
func (h Heading) Toward(eye, target mgl64.Vec3) Heading {
	d := target.Sub(eye)
	if d.Len() < degenerateLength {
		return h
	}
	flat := math.Hypot(d.X(), d.Z())
	return Heading{
		Yaw:   math.Atan2(d.X(), d.Z()),
		Pitch: math.Atan2(d.Y(), flat),
	}
}

// Quat converts the heading into a rotation of the +Z forward axis.
func (h Heading) Quat() mgl64.Quat {
	return mgl64.AnglesToQuat(h.Yaw, -h.Pitch, 0, mgl64.YXZ)
}

// Forward is the unit direction the heading faces.
func (h Heading) Forward() mgl64.Vec3 {
	return h.Quat().Rotate(mgl64.Vec3{0, 0, 1})
}

// Wrap folds t into [0,1). Negative values wrap from the top.
func Wrap(t float64) float64 {
	r := t - math.Floor(t)
	if r >= 1 {
		return 0
	}
	return r
}
