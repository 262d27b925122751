package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/model"
)

type Simulator struct {
	model     *model.TetModel
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(m *model.TetModel, stepper Stepper) *Simulator {
	return &Simulator{
		model:     m,
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Model() *model.TetModel { return s.model }

// Run steps the model for cfg.Duration. The model is not reset first, so
// consecutive runs continue from where the previous one stopped. Frames
// and metric series are sampled every cfg.SampleEvery steps, including the
// initial state.
func (s *Simulator) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := numSteps(cfg)
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}

	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, steps/every+1),
		Times:   make([]float64, 0, steps/every+1),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	clock := dynamo.NewClock(cfg.Dt)
	s.observe(clock.Time)
	s.sample(result, clock.Time)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, &dynamo.SimulationError{
				Step:    i,
				Time:    clock.Time,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		s.stepper.Step(clock, s.model)
		result.StepsTaken++

		if cfg.ValidateState && !dynamo.PositionsValid(s.model.Particles.Positions()) {
			err := dynamo.SimError{Time: clock.Time, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		s.observe(clock.Time)
		if (i+1)%every == 0 || i == steps-1 {
			s.sample(result, clock.Time)
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) observe(t float64) {
	for _, m := range s.metrics {
		m.Observe(s.model, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.model, t)
	}
}

func (s *Simulator) sample(result *dynamo.Result, t float64) {
	result.Frames = append(result.Frames, dynamo.Frame{Time: t, Positions: s.model.Particles.Positions()})
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		if sm, ok := m.(Sampler); ok {
			result.Series[m.Name()] = append(result.Series[m.Name()], sm.Last())
		}
	}
}

func (s *Simulator) finish(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d: %w", cfg.SampleEvery, dynamo.ErrParameterBounds)
	}
	return nil
}

func numSteps(cfg dynamo.Config) int {
	return int(math.Round(cfg.Duration / cfg.Dt))
}

// RunWithCallback steps the model until cfg.Duration elapses or callback
// returns false. The callback sees the state before every step.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg dynamo.Config, callback func(m *model.TetModel, t float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	clock := dynamo.NewClock(cfg.Dt)
	for i := 0; i < numSteps(cfg); i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if !callback(s.model, clock.Time) {
			return nil
		}

		s.stepper.Step(clock, s.model)

		if cfg.ValidateState && !dynamo.PositionsValid(s.model.Particles.Positions()) {
			return &dynamo.SimulationError{
				Step:    i,
				Time:    clock.Time,
				Wrapped: dynamo.ErrInvalidState,
			}
		}
	}

	return nil
}
