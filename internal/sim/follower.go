package sim

import "github.com/go-gl/mathgl/mgl64"

// FollowParams configures path following.
type FollowParams struct {
	// Step is the progress added per tick.
	Step float64
	// LookAhead is the progress offset of the point an agent faces.
	LookAhead float64
	// SpeedFactor scales the reported velocity of followers.
	SpeedFactor float64
}

// Lane places an agent on the shared path.
type Lane struct {
	// Phase offsets the agent's progress from the shared progress.
	Phase float64
	// Reverse makes the agent face backwards along the path.
	Reverse bool
	// Mirror drives the agent around the loop the other way, at
	// Wrap(Phase - progress).
	Mirror bool
	// SpinRate adds a decorative yaw change per tick, in radians.
	SpinRate float64
}

type rider struct {
	agent *Agent
	lane  Lane
	spin  float64
}

// Follower moves agents along a closed curve sharing one progress value.
type Follower struct {
	curve    Curve
	params   FollowParams
	progress float64
	riders   []*rider
}

// NewFollower creates a follower on curve starting at progress zero.
func NewFollower(curve Curve, params FollowParams) *Follower {
	return &Follower{curve: curve, params: params}
}

// Curve returns the path the agents follow.
func (f *Follower) Curve() Curve {
	return f.curve
}

// Progress returns the shared progress in [0,1).
func (f *Follower) Progress() float64 {
	return f.progress
}

// Add puts a on the path in lane and places it immediately.
func (f *Follower) Add(a *Agent, lane Lane) {
	r := &rider{agent: a, lane: lane}
	f.riders = append(f.riders, r)
	f.place(r)
}

// Step advances the shared progress and repositions every agent.
func (f *Follower) Step() {
	f.progress = Wrap(f.progress + f.params.Step)
	for _, r := range f.riders {
		r.spin += r.lane.SpinRate
		f.place(r)
	}
}

func (f *Follower) place(r *rider) {
	a := r.agent
	p := Wrap(f.progress + r.lane.Phase)
	dir := 1.0
	if r.lane.Mirror {
		p = Wrap(r.lane.Phase - f.progress)
		dir = -dir
	}
	if r.lane.Reverse {
		dir = -dir
	}
	ahead := p + dir*f.params.LookAhead

	pos := f.curve.SampleAt(p)
	target := f.curve.SampleAt(Wrap(ahead))

	a.Progress = p
	a.Position = pos
	if d := target.Sub(pos); d.Len() > degenerateLength {
		a.Velocity = d.Mul(f.params.SpeedFactor / d.Len())
	} else if a.Velocity.Len() < degenerateLength {
		a.Velocity = mgl64.Vec3{0, 0, f.params.SpeedFactor}
	}
	a.Heading = a.Heading.Toward(pos, target)
	a.Heading.Yaw += r.spin
}
