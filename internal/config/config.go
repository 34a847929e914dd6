package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultG            = 6.67e-11
	DefaultAU           = 1.5e11
	DefaultDaySeconds   = 24.0 * 60 * 60
	DefaultDtDays       = 1.0
	DefaultDurationDays = 365.0

	SunMass            = 2.0e30
	EarthMass          = 5.972e24
	EarthAphelionAU    = 1.0167
	EarthAphelionVel   = 29290.0
	DefaultCentralName = "Sun"
)

// Config is the single source of physical constants and initial
// conditions for a run. Times are in days, distances in AU, everything
// else in SI units.
type Config struct {
	Name         string        `yaml:"name,omitempty"`
	G            float64       `yaml:"g"`
	AU           float64       `yaml:"au"`
	DaySeconds   float64       `yaml:"day_seconds"`
	DtDays       float64       `yaml:"dt_days"`
	DurationDays float64       `yaml:"duration_days"`
	Central      CentralConfig `yaml:"central"`
	Bodies       []BodyConfig  `yaml:"bodies"`
	Parallel     bool          `yaml:"parallel"`
}

type CentralConfig struct {
	Name string  `yaml:"name"`
	Mass float64 `yaml:"mass"`
}

type BodyConfig struct {
	Name             string  `yaml:"name"`
	Mass             float64 `yaml:"mass"`
	DistanceAU       float64 `yaml:"distance_au"`
	AphelionVelocity float64 `yaml:"aphelion_velocity"`
}

// DefaultConfig is one year of the Earth around the Sun with a one day step.
func DefaultConfig() *Config {
	return &Config{
		Name:         "earth",
		G:            DefaultG,
		AU:           DefaultAU,
		DaySeconds:   DefaultDaySeconds,
		DtDays:       DefaultDtDays,
		DurationDays: DefaultDurationDays,
		Central:      CentralConfig{Name: DefaultCentralName, Mass: SunMass},
		Bodies: []BodyConfig{
			{Name: "Earth", Mass: EarthMass, DistanceAU: EarthAphelionAU, AphelionVelocity: EarthAphelionVel},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dt is the time step in seconds.
func (c *Config) Dt() float64 { return c.DtDays * c.DaySeconds }

// Duration is the simulated span in seconds.
func (c *Config) Duration() float64 { return c.DurationDays * c.DaySeconds }

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Bodies = append([]BodyConfig(nil), c.Bodies...)
	return &cp
}

// Validate fails with dynamo.ErrInvalidConfiguration before any stepping.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"g", c.G},
		{"au", c.AU},
		{"day_seconds", c.DaySeconds},
		{"dt_days", c.DtDays},
		{"duration_days", c.DurationDays},
		{"central.mass", c.Central.Mass},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return dynamo.InvalidConfig("%s must be positive, got %g", p.name, p.v)
		}
	}

	if steps := math.Ceil(c.DurationDays/c.DtDays - 1e-9); steps > dynamo.MaxSteps {
		return dynamo.InvalidConfig("duration_days %g at dt_days %g exceeds %d steps", c.DurationDays, c.DtDays, dynamo.MaxSteps)
	}

	if len(c.Bodies) == 0 {
		return dynamo.InvalidConfig("at least one orbiting body is required")
	}

	seen := map[string]bool{c.Central.Name: true}
	for i, b := range c.Bodies {
		if b.Name == "" {
			return dynamo.InvalidConfig("bodies[%d]: name is required", i)
		}
		if seen[b.Name] {
			return dynamo.InvalidConfig("bodies[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true

		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return dynamo.InvalidConfig("body %q: mass must be positive, got %g", b.Name, b.Mass)
		}
		if b.DistanceAU == 0 || math.IsNaN(b.DistanceAU) || math.IsInf(b.DistanceAU, 0) {
			return dynamo.InvalidConfig("body %q: starts at zero separation from %q", b.Name, c.Central.Name)
		}
		if math.IsNaN(b.AphelionVelocity) || math.IsInf(b.AphelionVelocity, 0) {
			return dynamo.InvalidConfig("body %q: aphelion velocity must be finite", b.Name)
		}
	}
	return nil
}
