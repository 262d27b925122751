package sim

import (
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/model"
)

// Stepper advances a model by one clock step.
type Stepper interface {
	Step(clock *dynamo.Clock, m *model.TetModel)
}

type Metric interface {
	Name() string
	Observe(m *model.TetModel, t float64)
	Value() float64
	Reset()
}

// Sampler is implemented by metrics whose latest observation is recorded
// as a time series.
type Sampler interface {
	Last() float64
}

type Observer interface {
	OnStep(m *model.TetModel, t float64)
}

type ObserverFunc func(m *model.TetModel, t float64)

func (f ObserverFunc) OnStep(m *model.TetModel, t float64) { f(m, t) }
