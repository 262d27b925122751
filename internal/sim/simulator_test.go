package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/timestep"
)

// driftStepper moves every particle by +1 in x per step.
type driftStepper struct{}

func (driftStepper) Step(clock *dynamo.Clock, m *model.TetModel) {
	pd := m.Particles
	for i := 0; i < pd.Size(); i++ {
		pd.SetPosition(i, pd.Position(i).Add(mgl64.Vec3{1, 0, 0}))
	}
	clock.Advance()
}

type nanStepper struct{}

func (nanStepper) Step(clock *dynamo.Clock, m *model.TetModel) {
	m.Particles.SetPosition(0, mgl64.Vec3{math.NaN(), 0, 0})
	clock.Advance()
}

func newTetModel(t *testing.T) *model.TetModel {
	t.Helper()
	m, err := model.FromGeometry(mesh.SingleTet())
	if err != nil {
		t.Fatalf("model setup failed: %v", err)
	}
	return m
}

func TestSimulatorRun(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	cfg := dynamo.Config{Dt: 0.01, Duration: 0.1, SampleEvery: 2}
	result, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}
	if len(result.Frames) != 6 {
		t.Errorf("expected 6 frames, got %d", len(result.Frames))
	}
	if len(result.Times) != len(result.Frames) {
		t.Errorf("times and frames differ in length: %d vs %d", len(result.Times), len(result.Frames))
	}

	last := result.Frames[len(result.Frames)-1]
	if math.Abs(last.Time-0.1) > 1e-9 {
		t.Errorf("expected final time 0.1, got %f", last.Time)
	}
	if last.Positions[0][0] != 10 {
		t.Errorf("expected particle 0 at x=10, got %f", last.Positions[0][0])
	}
	if result.Frames[0].Positions[0][0] != 0 {
		t.Error("first frame should hold the initial state")
	}
}

func TestSimulatorSamplesFinalStep(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	result, err := sim.Run(context.Background(), dynamo.Config{Dt: 0.1, Duration: 0.5, SampleEvery: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// initial, step 3, step 5
	if len(result.Frames) != 3 {
		t.Errorf("expected 3 frames, got %d", len(result.Frames))
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	tests := []struct {
		name string
		cfg  dynamo.Config
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1.0}},
		{"negative dt", dynamo.Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", dynamo.Config{Dt: 0.1, Duration: 0}},
		{"negative duration", dynamo.Config{Dt: 0.1, Duration: -1.0}},
		{"negative sampling", dynamo.Config{Dt: 0.1, Duration: 1.0, SampleEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

type testMetric struct {
	count int
	last  float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(m *model.TetModel, time float64) {
	t.count++
	t.last = m.Particles.Position(0)[0]
}
func (t *testMetric) Value() float64 { return float64(t.count) }
func (t *testMetric) Last() float64  { return t.last }
func (t *testMetric) Reset()         { t.count = 0 }

func TestSimulatorMetrics(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	var observed int
	sim.AddObserver(ObserverFunc(func(*model.TetModel, float64) { observed++ }))

	result, err := sim.Run(context.Background(), dynamo.Config{Dt: 0.1, Duration: 1.0, SampleEvery: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if v, ok := result.Metrics["test"]; !ok || v != 11 {
		t.Errorf("expected metric value 11, got %v (present %v)", v, ok)
	}
	if observed != 11 {
		t.Errorf("expected 11 observer calls, got %d", observed)
	}

	series := result.Series["test"]
	if len(series) != len(result.Frames) {
		t.Fatalf("series length %d, frames %d", len(series), len(result.Frames))
	}
	for i, v := range series {
		if v != float64(i) {
			t.Errorf("series[%d] = %f, want %d", i, v, i)
		}
	}
}

func TestSimulatorValidateState(t *testing.T) {
	sim := New(newTetModel(t), nanStepper{})

	result, err := sim.Run(context.Background(), dynamo.Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 1 {
		t.Errorf("expected the run to stop after 1 step, took %d", result.StepsTaken)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	var simErr dynamo.SimError
	if !errors.As(result.Errors[0], &simErr) || simErr.Step != 0 {
		t.Errorf("expected SimError at step 0, got %v", result.Errors[0])
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, dynamo.Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, dynamo.ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Error("expected a partial result with no steps")
	}
}

func TestSimulatorWithTimeStep(t *testing.T) {
	m, err := model.FromGeometry(mesh.Bar(mesh.BarSpec{Width: 4, Height: 2, Depth: 2, Spacing: 0.5}),
		model.WithFixed(model.FixedBelowX(0)))
	if err != nil {
		t.Fatal(err)
	}
	sim := New(m, timestep.New(timestep.DistanceVolume{}))

	result, err := sim.Run(context.Background(), dynamo.Config{Dt: 0.005, Duration: 0.1, SampleEvery: 5, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	for _, f := range result.Frames {
		if !f.IsValid() {
			t.Fatalf("invalid frame at t=%f", f.Time)
		}
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(newTetModel(t), driftStepper{})

	calls := 0
	err := sim.RunWithCallback(context.Background(), dynamo.Config{Dt: 0.1, Duration: 1.0}, func(m *model.TetModel, tm float64) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 callbacks, got %d", calls)
	}
	if x := sim.Model().Particles.Position(0)[0]; x != 2 {
		t.Errorf("expected 2 steps taken, particle at x=%f", x)
	}
}

func TestRunWithCallbackInvalidState(t *testing.T) {
	sim := New(newTetModel(t), nanStepper{})

	err := sim.RunWithCallback(context.Background(), dynamo.Config{Dt: 0.1, Duration: 1.0, ValidateState: true},
		func(*model.TetModel, float64) bool { return true })
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestEnsemble(t *testing.T) {
	ens := NewEnsemble()
	a, b := newTetModel(t), newTetModel(t)
	ens.Add("drift", New(a, driftStepper{}))
	ens.Add("still", New(b, timestep.New(nil)))

	if ens.Len() != 2 {
		t.Fatalf("expected 2 runs, got %d", ens.Len())
	}

	results, err := ens.Run(context.Background(), dynamo.Config{Dt: 0.01, Duration: 0.05, SampleEvery: 1})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if x := results[0].Frames[len(results[0].Frames)-1].Positions[0][0]; x != 5 {
		t.Errorf("drift run: expected x=5, got %f", x)
	}
	if b.Particles.Position(0)[0] == 5 {
		t.Error("runs share state")
	}
}

func TestEnsembleError(t *testing.T) {
	ens := NewEnsemble()
	ens.Add("bad", New(newTetModel(t), driftStepper{}))

	_, err := ens.Run(context.Background(), dynamo.Config{Dt: 0, Duration: 1})
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestSimError(t *testing.T) {
	err := dynamo.SimError{Time: 1.5, Step: 150, Message: "test error"}
	expected := "step 150 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
}
