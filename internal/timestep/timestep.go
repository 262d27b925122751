package timestep

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/pbd"
)

// MaxIterations is the number of Gauss-Seidel sweeps per step.
const MaxIterations = 5

type TimeStep struct {
	method Method
}

func New(method Method) *TimeStep {
	if method == nil {
		method = DistanceVolume{}
	}
	return &TimeStep{method: method}
}

func (ts *TimeStep) Method() Method { return ts.method }

// SetMethod takes effect on the next Step.
func (ts *TimeStep) SetMethod(method Method) {
	if method != nil {
		ts.method = method
	}
}

// Step advances m by clock.StepSize and then advances the clock.
func (ts *TimeStep) Step(clock *dynamo.Clock, m *model.TetModel) {
	h := clock.StepSize
	pd := m.Particles

	ts.ClearAccelerations(m)
	ts.SemiImplicitEuler(m, h)
	ts.ConstraintProjection(m)

	for i := 0; i < pd.Size(); i++ {
		pd.SetVelocity(i, pd.Position(i).Sub(pd.LastPosition(i)).Mul(1.0/h))
	}

	clock.Advance()
}

// ClearAccelerations sets gravity on every dynamic particle.
func (ts *TimeStep) ClearAccelerations(m *model.TetModel) {
	pd := m.Particles
	for i := 0; i < pd.Size(); i++ {
		if pd.Mass(i) != 0 {
			pd.SetAcceleration(i, dynamo.Gravity)
		}
	}
}

func (ts *TimeStep) SemiImplicitEuler(m *model.TetModel, h float64) {
	pd := m.Particles
	for i := 0; i < pd.Size(); i++ {
		if pd.Mass(i) == 0 {
			continue
		}
		x := pd.Position(i)
		pd.SetLastPosition(i, x)
		v := pd.Velocity(i).Add(pd.Acceleration(i).Mul(h))
		pd.SetVelocity(i, v)
		pd.SetPosition(i, x.Add(v.Mul(h)))
	}
}

func (ts *TimeStep) ConstraintProjection(m *model.TetModel) {
	ts.ProjectIterations(m, MaxIterations)
}

// ProjectIterations runs n Gauss-Seidel sweeps of the active method.
// Corrections are written back immediately so later constraints see them.
func (ts *TimeStep) ProjectIterations(m *model.TetModel, n int) {
	for iter := 0; iter < n; iter++ {
		if ts.method.projectsEdges() {
			ts.projectEdges(m)
		}
		ts.projectTets(m)
	}
}

func (ts *TimeStep) projectEdges(m *model.TetModel) {
	pd := m.Particles
	k := m.Stiffness()

	for _, e := range m.Mesh.Edges() {
		i0, i1 := e[0], e[1]
		restLength := pd.Position0(i1).Sub(pd.Position0(i0)).Len()

		c0, c1, ok := pbd.SolveDistance(
			pd.Position(i0), pd.InvMass(i0),
			pd.Position(i1), pd.InvMass(i1),
			restLength, k, k)
		if !ok {
			continue
		}
		if pd.InvMass(i0) != 0 {
			pd.SetPosition(i0, pd.Position(i0).Add(c0))
		}
		if pd.InvMass(i1) != 0 {
			pd.SetPosition(i1, pd.Position(i1).Add(c1))
		}
	}
}

func (ts *TimeStep) projectTets(m *model.TetModel) {
	pd := m.Particles
	k := m.Stiffness()
	constraints := m.TetConstraints()

	for i := range constraints {
		t := m.Mesh.Tet(i)

		var p [4]mgl64.Vec3
		var w [4]float64
		for j, v := range t {
			p[j] = pd.Position(v)
			w[j] = pd.InvMass(v)
		}

		corr, ok := ts.method.solveTet(p, w, &constraints[i], k)
		if !ok {
			continue
		}
		for j, v := range t {
			if w[j] != 0 {
				pd.SetPosition(v, pd.Position(v).Add(corr[j]))
			}
		}
	}
}

// Reset restores the model to its rest configuration. The stepper itself
// keeps no state.
func (ts *TimeStep) Reset(m *model.TetModel) {
	m.Reset()
}
