package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/timestep"
)

// fixTolerance widens the left-end selection against rounding in the
// generated grid.
const fixTolerance = 1e-9

type Experiment struct {
	cfg       *config.Config
	model     *model.TetModel
	stepper   *timestep.TimeStep
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds the model, the stepper and
// a simulator with the registry's default metrics.
func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	scenario, err := r.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	method, err := e.cfg.NewMethod()
	if err != nil {
		return err
	}

	m, err := BuildModel(scenario(e.cfg), e.cfg)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", e.cfg.Scenario, err)
	}

	e.model = m
	e.stepper = timestep.New(method)
	e.simulator = sim.New(m, e.stepper)
	for _, metric := range r.DefaultMetrics() {
		e.simulator.AddMetric(metric)
	}
	return nil
}

// BuildModel applies the material settings of cfg to a geometry.
func BuildModel(g mesh.Geometry, cfg *config.Config) (*model.TetModel, error) {
	opts := []model.Option{
		model.WithStiffness(cfg.Stiffness),
		model.WithMass(cfg.Mass),
	}
	if cfg.FixLeftEnd && len(g.Positions) > 0 {
		minX := math.Inf(1)
		for _, p := range g.Positions {
			minX = math.Min(minX, p[0])
		}
		opts = append(opts, model.WithFixed(model.FixedBelowX(minX+fixTolerance)))
	}
	return model.FromGeometry(g, opts...)
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.SimConfig())
}

func (e *Experiment) Config() *config.Config       { return e.cfg }
func (e *Experiment) Model() *model.TetModel       { return e.model }
func (e *Experiment) Stepper() *timestep.TimeStep  { return e.stepper }
func (e *Experiment) GetSimulator() *sim.Simulator { return e.simulator }
