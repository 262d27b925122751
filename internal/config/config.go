package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/timestep"
)

const (
	DefaultScenario     = "bar"
	DefaultMethod       = "distance"
	DefaultDt           = 0.005
	DefaultDuration     = 5.0
	DefaultStiffness    = 1.0
	DefaultPoissonRatio = 0.3
	DefaultMass         = 1.0
	DefaultSampleEvery  = 4
)

type Config struct {
	Scenario         string    `yaml:"scenario"`
	Method           string    `yaml:"method"`
	Dt               float64   `yaml:"dt"`
	Duration         float64   `yaml:"duration"`
	Stiffness        float64   `yaml:"stiffness"`
	PoissonRatio     float64   `yaml:"poisson_ratio"`
	NormalizeStretch bool      `yaml:"normalize_stretch"`
	NormalizeShear   bool      `yaml:"normalize_shear"`
	Mass             float64   `yaml:"mass"`
	FixLeftEnd       bool      `yaml:"fix_left_end"`
	SampleEvery      int       `yaml:"sample_every"`
	ValidateState    bool      `yaml:"validate_state"`
	Bar              BarConfig `yaml:"bar"`
}

type BarConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Depth   int     `yaml:"depth"`
	Spacing float64 `yaml:"spacing"`
}

func DefaultBar() BarConfig {
	spec := mesh.DefaultBarSpec()
	return BarConfig{Width: spec.Width, Height: spec.Height, Depth: spec.Depth, Spacing: spec.Spacing}
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:      DefaultScenario,
		Method:        DefaultMethod,
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		Stiffness:     DefaultStiffness,
		PoissonRatio:  DefaultPoissonRatio,
		Mass:          DefaultMass,
		FixLeftEnd:    true,
		SampleEvery:   DefaultSampleEvery,
		ValidateState: true,
		Bar:           DefaultBar(),
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file on top of cfg. Keys missing from the file
// leave cfg unchanged.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := c.MethodKind(); err != nil {
		return err
	}
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrParameterBounds)
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %g: %w", c.Duration, dynamo.ErrParameterBounds)
	case c.Stiffness < 0:
		return fmt.Errorf("stiffness must not be negative, got %g: %w", c.Stiffness, dynamo.ErrParameterBounds)
	case c.PoissonRatio <= -1 || c.PoissonRatio >= 0.5:
		return fmt.Errorf("poisson ratio must lie in (-1, 0.5), got %g: %w", c.PoissonRatio, dynamo.ErrParameterBounds)
	case c.Mass <= 0:
		return fmt.Errorf("mass must be positive, got %g: %w", c.Mass, dynamo.ErrParameterBounds)
	case c.SampleEvery < 0:
		return fmt.Errorf("sample_every must not be negative, got %d: %w", c.SampleEvery, dynamo.ErrParameterBounds)
	}
	if c.Scenario == "bar" {
		b := c.Bar
		if b.Width < 2 || b.Height < 2 || b.Depth < 2 || b.Spacing <= 0 {
			return fmt.Errorf("bar needs at least 2 points per axis and positive spacing, got %+v: %w", b, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

func (c *Config) MethodKind() (timestep.Kind, error) {
	return timestep.ParseKind(c.Method)
}

func (c *Config) MethodParams() timestep.Params {
	return timestep.Params{
		PoissonRatio:     c.PoissonRatio,
		NormalizeStretch: c.NormalizeStretch,
		NormalizeShear:   c.NormalizeShear,
	}
}

// NewMethod builds the configured method variant.
func (c *Config) NewMethod() (timestep.Method, error) {
	k, err := c.MethodKind()
	if err != nil {
		return nil, err
	}
	return timestep.NewMethod(k, c.MethodParams())
}

func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		SampleEvery:   c.SampleEvery,
		ValidateState: c.ValidateState,
	}
}

func (c *Config) BarSpec() mesh.BarSpec {
	return mesh.BarSpec{Width: c.Bar.Width, Height: c.Bar.Height, Depth: c.Bar.Depth, Spacing: c.Bar.Spacing}
}
