package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"drivesim/internal/tick"
)

// Inspection is what the click-to-inspect overlay shows for an agent.
type Inspection struct {
	Name      string
	Attribute string
}

// AgentState is a read-only copy of an agent taken after a tick.
type AgentState struct {
	ID       string
	Name     string
	Color    [3]float64
	Position [3]float64
	Yaw      float64
	Pitch    float64
	Battery  int
	Progress float64
}

// Snapshot is the scene state handed to the renderer after every tick.
type Snapshot struct {
	Scene     string
	Strategy  Strategy
	Tick      uint64
	Paused    bool
	Exclusion bool
	TickRate  float64
	Agents    []AgentState
}

type motion interface {
	Step()
}

// Simulation owns the agents of one scene and advances them on each tick.
type Simulation struct {
	mu       sync.RWMutex
	conf     SceneConfig
	agents   []*Agent
	registry *Registry
	model    motion
	walker   *Walker
	rng      *rand.Rand
	tick     uint64
	paused   bool
	detach   []func()
}

// New builds the scene described by conf. A zero Seed seeds from the clock.
func New(conf SceneConfig) (*Simulation, error) {
	conf = conf.WithDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulation{
		conf:     conf,
		registry: NewRegistry(),
		rng:      rand.New(rand.NewSource(seed)),
	}

	var err error
	switch conf.Strategy {
	case RandomWalk:
		err = s.buildWalk()
	case PathFollow:
		err = s.buildPath()
	}
	if err != nil {
		return nil, fmt.Errorf("scene %q: %w", conf.Name, err)
	}
	return s, nil
}

func (s *Simulation) buildWalk() error {
	w := NewWalker(WalkParams{
		GroundSize:          s.conf.GroundSize,
		BoundaryBuffer:      s.conf.BoundaryBuffer,
		SpeedFactor:         s.conf.Speed,
		ChangeInterval:      s.conf.ChangeInterval,
		LegacyDoubleAdvance: s.conf.LegacyDoubleAdvance,
	}, s.rng)

	var zones []Zone
	for _, zc := range s.conf.Zones {
		z, err := NewZone(zc.Name, zc.Points)
		if err != nil {
			return err
		}
		zones = append(zones, z)
	}
	if s.conf.ZonesGeoJSON != "" {
		loaded, err := ReadZonesFile(s.conf.ZonesGeoJSON)
		if err != nil {
			return err
		}
		zones = append(zones, loaded...)
	}
	w.SetZones(zones)
	w.SetExclusion(s.conf.Exclusion)

	for i := 0; i < s.conf.Agents; i++ {
		name := fmt.Sprintf("car%d", i+1)
		color := [3]float64{s.rng.Float64(), s.rng.Float64(), s.rng.Float64()}
		pos := w.SpawnPosition(s.rng)

		a := NewAgent(name, color, pos)
		a.Battery = s.rng.Intn(100) + 1
		w.Add(a)
		s.addAgent(a)
	}

	s.walker = w
	s.model = w
	return nil
}

func (s *Simulation) buildPath() error {
	points := s.conf.Path.controlPoints()
	if s.conf.Path.GeoJSON != "" {
		data, err := os.ReadFile(s.conf.Path.GeoJSON)
		if err != nil {
			return fmt.Errorf("read path: %w", err)
		}
		if points, err = LoadPathGeoJSON(data, s.conf.Path.Height); err != nil {
			return err
		}
	}

	curve, err := NewCurve(s.conf.Path.Kind, points)
	if err != nil {
		return err
	}
	f := NewFollower(curve, FollowParams{
		Step:        s.conf.Path.Step,
		LookAhead:   s.conf.Path.LookAhead,
		SpeedFactor: s.conf.Speed,
	})
	for _, fc := range s.conf.Followers {
		a := NewAgent(fc.Name, fc.Color, curve.SampleAt(fc.Phase))
		f.Add(a, Lane{Phase: fc.Phase, Reverse: fc.Reverse, Mirror: fc.Mirror, SpinRate: fc.SpinRate})
		s.addAgent(a)
	}

	s.model = f
	return nil
}

func (s *Simulation) addAgent(a *Agent) {
	s.agents = append(s.agents, a)
	s.registry.Register(a, MeshHandles(a.Name)...)
}

// Name returns the scene name.
func (s *Simulation) Name() string {
	return s.conf.Name
}

// Config returns the normalized scene configuration.
func (s *Simulation) Config() SceneConfig {
	return s.conf
}

// SetPaused stops or resumes agent updates. Ticks still produce snapshots
// while paused.
func (s *Simulation) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// Paused reports whether updates are stopped.
func (s *Simulation) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetExclusion toggles exclusion zones. It reports false for scenes that do
// not random-walk.
func (s *Simulation) SetExclusion(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.walker == nil {
		return false
	}
	s.walker.SetExclusion(enabled)
	return true
}

// ExclusionEnabled reports whether exclusion zones are active.
func (s *Simulation) ExclusionEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walker != nil && s.walker.Exclusion()
}

// Inspect resolves a picked render handle to the agent's overlay text.
func (s *Simulation) Inspect(handle string) (Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.registry.Lookup(handle)
	if err != nil {
		return Inspection{}, err
	}
	if s.conf.Strategy == PathFollow {
		return Inspection{Name: a.Name, Attribute: fmt.Sprintf("progress: %.1f%%", a.Progress*100)}, nil
	}
	return Inspection{Name: a.Name, Attribute: fmt.Sprintf("battery: %d%%", a.Battery)}, nil
}

// Tick advances every agent once, unless paused, and returns the resulting
// state.
func (s *Simulation) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		s.model.Step()
		s.tick++
	}
	return s.snapshotLocked()
}

// Snapshot returns the current state without advancing.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	snap := Snapshot{
		Scene:     s.conf.Name,
		Strategy:  s.conf.Strategy,
		Tick:      s.tick,
		Paused:    s.paused,
		Exclusion: s.walker != nil && s.walker.Exclusion(),
		Agents:    make([]AgentState, len(s.agents)),
	}
	for i, a := range s.agents {
		snap.Agents[i] = AgentState{
			ID:       a.ID.String(),
			Name:     a.Name,
			Color:    a.Color,
			Position: [3]float64(a.Position),
			Yaw:      a.Heading.Yaw,
			Pitch:    a.Heading.Pitch,
			Battery:  a.Battery,
			Progress: a.Progress,
		}
	}
	return snap
}

// Attach subscribes the scene to clock. Every frame ticks the scene and
// passes the snapshot to report. The returned function detaches it.
func (s *Simulation) Attach(clock *tick.Clock, report func(Snapshot)) (detach func()) {
	unsubscribe := clock.Subscribe(func() {
		snap := s.Tick()
		snap.TickRate = clock.Rate()
		if report != nil {
			report(snap)
		}
	})

	s.mu.Lock()
	s.detach = append(s.detach, unsubscribe)
	s.mu.Unlock()
	return unsubscribe
}

// Close detaches the scene from every clock it was attached to.
func (s *Simulation) Close() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
}

// Run ticks the scene every interval until ctx is cancelled, forwarding each
// snapshot to report.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, report func(Snapshot)) {
	clock := tick.NewClock()
	detach := s.Attach(clock, report)
	defer detach()

	log.Printf("scene %s started: strategy=%s agents=%d interval=%v", s.conf.Name, s.conf.Strategy, len(s.agents), interval)
	clock.Run(ctx, interval)
	log.Printf("scene %s stopped at tick %d", s.conf.Name, s.Snapshot().Tick)
}
