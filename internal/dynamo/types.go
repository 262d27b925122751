package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Gravity is the constant external acceleration applied to every dynamic
// particle at the start of a step.
var Gravity = mgl64.Vec3{0, -9.81, 0}

// Clock is the simulation context owned by the driver loop. The step size
// is fixed for the lifetime of a run; Time is the elapsed simulated time.
type Clock struct {
	StepSize float64
	Time     float64
}

func NewClock(stepSize float64) *Clock {
	return &Clock{StepSize: stepSize}
}

// Advance moves simulated time forward by one step.
func (c *Clock) Advance() { c.Time += c.StepSize }

func (c *Clock) Reset() { c.Time = 0 }

// Frame is a snapshot of every particle position at a point in time.
type Frame struct {
	Time      float64
	Positions []mgl64.Vec3
}

// IsValid reports whether every coordinate in the frame is finite.
func (f Frame) IsValid() bool {
	return PositionsValid(f.Positions)
}

func PositionsValid(ps []mgl64.Vec3) bool {
	for _, p := range ps {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Flatten returns x0,y0,z0,x1,... for export.
func (f Frame) Flatten() []float64 {
	out := make([]float64, 0, 3*len(f.Positions))
	for _, p := range f.Positions {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

type Config struct {
	Dt            float64
	Duration      float64
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.005,
		Duration:      5.0,
		SampleEvery:   4,
		ValidateState: true,
	}
}

type Result struct {
	Frames     []Frame
	Times      []float64
	Series     map[string][]float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
