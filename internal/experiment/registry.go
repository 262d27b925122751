package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/sim"
)

// ScenarioFunc builds the rest geometry of a scene.
type ScenarioFunc func(cfg *config.Config) mesh.Geometry

type Registry struct {
	scenarios map[string]ScenarioFunc
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios: make(map[string]ScenarioFunc),
	}

	r.scenarios["bar"] = func(cfg *config.Config) mesh.Geometry { return mesh.Bar(cfg.BarSpec()) }
	r.scenarios["cube"] = func(cfg *config.Config) mesh.Geometry {
		return mesh.Cube(cfg.Bar.Height, cfg.Bar.Spacing)
	}
	r.scenarios["tet"] = func(*config.Config) mesh.Geometry { return mesh.SingleTet() }

	return r
}

func (r *Registry) Register(name string, fn ScenarioFunc) {
	r.scenarios[name] = fn
}

func (r *Registry) GetScenario(name string) (ScenarioFunc, error) {
	fn, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", name, dynamo.ErrUnknownScenario)
	}
	return fn, nil
}

func (r *Registry) ListScenarios() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh instances of the metrics recorded for every
// run.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewVolumeError(),
		metrics.NewEdgeStrain(),
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewStability(10.0),
	}
}
