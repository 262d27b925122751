package config

import "sort"

func preset(scenario, method string, mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Scenario = scenario
	cfg.Method = method
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	"bar": {
		"default": preset("bar", "distance", nil),
		"fem":     preset("bar", "fem", nil),
		"sbd": preset("bar", "sbd", func(c *Config) {
			c.NormalizeStretch = true
			c.NormalizeShear = true
		}),
		"soft": preset("bar", "distance", func(c *Config) {
			c.Stiffness = 0.2
			c.Duration = 8.0
		}),
		"rubber": preset("bar", "fem", func(c *Config) {
			c.PoissonRatio = 0.45
			c.Stiffness = 0.5
		}),
		"short": preset("bar", "sbd", func(c *Config) {
			c.Bar = BarConfig{Width: 10, Height: 4, Depth: 4, Spacing: 0.3}
			c.Duration = 2.0
		}),
	},
	"cube": {
		"drop": preset("cube", "distance", func(c *Config) {
			c.FixLeftEnd = false
			c.Duration = 1.0
		}),
		"hanging": preset("cube", "fem", nil),
	},
	"tet": {
		"single": preset("tet", "fem", func(c *Config) {
			c.FixLeftEnd = false
			c.Duration = 1.0
			c.SampleEvery = 1
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// ListPresets returns the preset names of a scenario in sorted order.
func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
