package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// maxResamples bounds how often a degenerate random direction is redrawn
// before falling back to the +X axis.
const maxResamples = 8

// maxSpawnDraws bounds how often a spawn position landing in a zone is
// redrawn.
const maxSpawnDraws = 100

// WalkParams configures the bounded random walk.
type WalkParams struct {
	GroundSize     float64
	BoundaryBuffer float64
	SpeedFactor    float64
	ChangeInterval int
	// LegacyDoubleAdvance moves agents twice per tick, matching the speed of
	// the older demos.
	LegacyDoubleAdvance bool
}

// Walker moves agents by a random walk that bounces off a square arena.
type Walker struct {
	params    WalkParams
	rng       Source
	agents    []*Agent
	zones     []Zone
	exclusion bool
}

// NewWalker creates a walker drawing headings from rng.
func NewWalker(params WalkParams, rng Source) *Walker {
	return &Walker{params: params, rng: rng}
}

// Limit is the distance from the arena centre at which agents bounce.
func (w *Walker) Limit() float64 {
	return w.params.GroundSize/2 - w.params.BoundaryBuffer
}

// SetZones replaces the exclusion zones. They only apply while exclusion is
// enabled.
func (w *Walker) SetZones(zones []Zone) {
	w.zones = zones
}

// SetExclusion toggles the exclusion-zone check.
func (w *Walker) SetExclusion(enabled bool) {
	w.exclusion = enabled
}

// Exclusion reports whether the exclusion-zone check is active.
func (w *Walker) Exclusion() bool {
	return w.exclusion
}

// Add gives a an initial heading and countdown and starts moving it.
func (w *Walker) Add(a *Agent) {
	a.Velocity = w.RandomVelocity()
	a.FramesUntilChange = w.params.ChangeInterval
	a.Heading = a.Heading.Toward(a.Position, a.Position.Add(a.Velocity))
	w.agents = append(w.agents, a)
}

// Step updates every agent once.
func (w *Walker) Step() {
	for _, a := range w.agents {
		w.Update(a)
	}
}

// Update advances a single agent by one tick.
func (w *Walker) Update(a *Agent) {
	if w.blocked(a) {
		a.Velocity = w.RandomVelocity()
	} else {
		a.Advance()
		if w.params.LegacyDoubleAdvance {
			a.Advance()
		}
	}

	limit := w.Limit()
	a.Velocity[0] = bounce(a.Position.X(), a.Velocity.X(), limit)
	a.Velocity[2] = bounce(a.Position.Z(), a.Velocity.Z(), limit)

	a.FramesUntilChange--
	if a.FramesUntilChange <= 0 {
		a.Velocity = w.RandomVelocity()
		a.FramesUntilChange = w.params.ChangeInterval
		a.Reheadings++
	}

	a.Velocity = w.rescale(a.Velocity)
	a.Heading = a.Heading.Toward(a.Position, a.Position.Add(a.Velocity))
}

// RandomVelocity draws a horizontal direction scaled to the speed factor.
func (w *Walker) RandomVelocity() mgl64.Vec3 {
	for i := 0; i < maxResamples; i++ {
		v := mgl64.Vec3{w.rng.Float64()*2 - 1, 0, w.rng.Float64()*2 - 1}
		if l := v.Len(); l > degenerateLength {
			return v.Mul(w.params.SpeedFactor / l)
		}
	}
	return mgl64.Vec3{w.params.SpeedFactor, 0, 0}
}

// blocked reports whether this tick's advance would carry the agent into a
// zone. An agent already inside one is free to drive out.
func (w *Walker) blocked(a *Agent) bool {
	if !w.exclusion || len(w.zones) == 0 {
		return false
	}
	if InAnyZone(w.zones, a.Position) {
		return false
	}
	steps := 1.0
	if w.params.LegacyDoubleAdvance {
		steps = 2
	}
	return InAnyZone(w.zones, a.Position.Add(a.Velocity.Mul(steps)))
}

// SpawnPosition draws a random position inside the arena, avoiding the zones
// while exclusion is enabled. After maxSpawnDraws misses it keeps the last
// draw; blocked lets that agent drive out.
func (w *Walker) SpawnPosition(rng Source) mgl64.Vec3 {
	limit := w.Limit()
	var pos mgl64.Vec3
	for i := 0; i < maxSpawnDraws; i++ {
		pos = mgl64.Vec3{(rng.Float64()*2 - 1) * limit, 0, (rng.Float64()*2 - 1) * limit}
		if !w.exclusion || !InAnyZone(w.zones, pos) {
			break
		}
	}
	return pos
}

func (w *Walker) rescale(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < degenerateLength || math.IsNaN(l) || math.IsInf(l, 0) {
		return w.RandomVelocity()
	}
	return v.Mul(w.params.SpeedFactor / l)
}

// bounce points vel back into [-limit, limit] once pos has crossed it.
func bounce(pos, vel, limit float64) float64 {
	switch {
	case pos > limit:
		return -math.Abs(vel)
	case pos < -limit:
		return math.Abs(vel)
	}
	return vel
}
