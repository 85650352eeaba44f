package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is wrapped by every scene validation failure.
var ErrInvalidConfig = errors.New("invalid scene config")

// Strategy selects the motion model of a scene.
type Strategy string

const (
	// RandomWalk bounces agents around a square arena.
	RandomWalk Strategy = "randomwalk"
	// PathFollow moves agents along a closed curve.
	PathFollow Strategy = "path"
)

// Duration is a time.Duration written as a string such as "16ms".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config lists the scenes served by one process.
type Config struct {
	Scenes []SceneConfig `toml:"scene"`
}

// SceneConfig holds the parameters of one scene session.
type SceneConfig struct {
	Name         string   `toml:"name"`
	Strategy     Strategy `toml:"strategy"`
	Seed         int64    `toml:"seed"`
	TickInterval Duration `toml:"tick_interval"`

	// Random walk.
	Agents              int          `toml:"agents"`
	GroundSize          float64      `toml:"ground_size"`
	BoundaryBuffer      float64      `toml:"boundary_buffer"`
	Speed               float64      `toml:"speed"`
	ChangeInterval      int          `toml:"change_interval"`
	LegacyDoubleAdvance bool         `toml:"legacy_double_advance"`
	Exclusion           bool         `toml:"exclusion"`
	Zones               []ZoneConfig `toml:"zone"`
	ZonesGeoJSON        string       `toml:"zones_geojson"`

	// Path following.
	Path      PathConfig       `toml:"path"`
	Followers []FollowerConfig `toml:"follower"`
}

// ZoneConfig is an exclusion polygon given as (x, z) points.
type ZoneConfig struct {
	Name   string       `toml:"name"`
	Points [][2]float64 `toml:"points"`
}

// PathConfig describes the curve a path-follow scene uses.
type PathConfig struct {
	Kind      CurveKind    `toml:"kind"`
	Points    [][3]float64 `toml:"points"`
	GeoJSON   string       `toml:"geojson"`
	Height    float64      `toml:"height"`
	Step      float64      `toml:"step"`
	LookAhead float64      `toml:"look_ahead"`
}

// FollowerConfig describes one agent on the path.
type FollowerConfig struct {
	Name     string     `toml:"name"`
	Color    [3]float64 `toml:"color"`
	Phase    float64    `toml:"phase"`
	Reverse  bool       `toml:"reverse"`
	Mirror   bool       `toml:"mirror"`
	SpinRate float64    `toml:"spin_rate"`
}

// DefaultConfig serves a ten-car random walk and a two-car loop running in
// counter-phase.
func DefaultConfig() *Config {
	return &Config{
		Scenes: []SceneConfig{
			{
				Name:     "cars",
				Strategy: RandomWalk,
				Agents:   10,
			},
			{
				Name:     "track",
				Strategy: PathFollow,
				Path: PathConfig{
					Kind: Polyline,
					Points: [][3]float64{
						{100, 1, 100},
						{-100, 5, 100},
						{-100, 0, -100},
						{100, 100, -100},
						{100, 1, 100},
					},
				},
				Followers: []FollowerConfig{
					{Name: "car1", Color: [3]float64{0.8, 0, 0}},
					{Name: "car2", Color: [3]float64{0, 0, 0.8}, Phase: 0.5, Reverse: true},
				},
			},
		},
	}
}

// LoadConfig reads scenes from a TOML file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	var conf Config
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return conf.normalize()
}

// ParseConfig decodes scenes from TOML text and fills in defaults.
func ParseConfig(data string) (*Config, error) {
	var conf Config
	if _, err := toml.Decode(data, &conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return conf.normalize()
}

func (c *Config) normalize() (*Config, error) {
	if len(c.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes", ErrInvalidConfig)
	}
	seen := make(map[string]bool)
	for i := range c.Scenes {
		sc := c.Scenes[i].WithDefaults()
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("%w: duplicate scene %q", ErrInvalidConfig, sc.Name)
		}
		seen[sc.Name] = true
		c.Scenes[i] = sc
	}
	return c, nil
}

// WithDefaults returns a copy with zero fields replaced by the defaults of
// the original car demos.
func (sc SceneConfig) WithDefaults() SceneConfig {
	if sc.Strategy == "" {
		sc.Strategy = RandomWalk
	}
	if sc.TickInterval.Duration <= 0 {
		sc.TickInterval.Duration = 16 * time.Millisecond
	}
	if sc.GroundSize <= 0 {
		sc.GroundSize = 300
	}
	if sc.BoundaryBuffer <= 0 {
		sc.BoundaryBuffer = 10
	}
	if sc.Speed <= 0 {
		sc.Speed = 0.5
	}
	if sc.ChangeInterval <= 0 {
		sc.ChangeInterval = 100
	}
	if sc.Path.Kind == "" {
		sc.Path.Kind = Polyline
	}
	if sc.Path.Step == 0 {
		sc.Path.Step = 0.001
	}
	if sc.Path.LookAhead <= 0 {
		sc.Path.LookAhead = 0.01
	}
	for i := range sc.Followers {
		if sc.Followers[i].Name == "" {
			sc.Followers[i].Name = fmt.Sprintf("car%d", i+1)
		}
	}
	return sc
}

// Validate checks the fields the motion models depend on.
func (sc SceneConfig) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("%w: scene without name", ErrInvalidConfig)
	}
	switch sc.Strategy {
	case RandomWalk:
		if sc.Agents <= 0 {
			return fmt.Errorf("%w: scene %q needs agents > 0", ErrInvalidConfig, sc.Name)
		}
		if sc.GroundSize/2-sc.BoundaryBuffer <= 0 {
			return fmt.Errorf("%w: scene %q boundary buffer %.2f leaves no room in ground %.2f",
				ErrInvalidConfig, sc.Name, sc.BoundaryBuffer, sc.GroundSize)
		}
	case PathFollow:
		if len(sc.Path.Points) == 0 && sc.Path.GeoJSON == "" {
			return fmt.Errorf("%w: scene %q has no path points", ErrInvalidConfig, sc.Name)
		}
		if len(sc.Followers) == 0 {
			return fmt.Errorf("%w: scene %q has no followers", ErrInvalidConfig, sc.Name)
		}
	default:
		return fmt.Errorf("%w: scene %q has unknown strategy %q", ErrInvalidConfig, sc.Name, sc.Strategy)
	}
	return nil
}

func (p PathConfig) controlPoints() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(p.Points))
	for i, pt := range p.Points {
		out[i] = mgl64.Vec3(pt)
	}
	return out
}
