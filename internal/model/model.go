package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/particles"
	"github.com/san-kum/softbody/internal/pbd"
)

const (
	DefaultStiffness = 1.0
	DefaultMass      = 1.0
)

// TetConstraint holds the rest invariants of one tetrahedron. They are
// computed once at setup and never change.
type TetConstraint struct {
	RestVolume    float64
	InvRestMatFEM mgl64.Mat3
	InvRestMatSBD mgl64.Mat3
}

// TetModel is a deformable body: particle state, tetrahedral topology, the
// per-tet constraint records and the shared stiffness.
type TetModel struct {
	Particles   *particles.Data
	Mesh        *mesh.IndexedTetMesh
	constraints []TetConstraint
	stiffness   float64
}

type Option func(*options)

type options struct {
	stiffness float64
	mass      float64
	fixed     func(i int, x mgl64.Vec3) bool
}

func WithStiffness(k float64) Option { return func(o *options) { o.stiffness = k } }

// WithMass sets the mass of every dynamic particle.
func WithMass(m float64) Option { return func(o *options) { o.mass = m } }

// WithFixed marks particles for which pred returns true as kinematic.
func WithFixed(pred func(i int, x mgl64.Vec3) bool) Option {
	return func(o *options) { o.fixed = pred }
}

// FixedBelowX pins every particle whose rest x coordinate is at most x.
func FixedBelowX(x float64) func(int, mgl64.Vec3) bool {
	return func(_ int, p mgl64.Vec3) bool { return p[0] <= x }
}

// New builds a model from a mesh and its rest positions.
func New(m *mesh.IndexedTetMesh, rest []mgl64.Vec3, opts ...Option) (*TetModel, error) {
	if m.NumVertices() != len(rest) {
		return nil, fmt.Errorf("mesh has %d vertices, got %d positions: %w", m.NumVertices(), len(rest), dynamo.ErrParameterBounds)
	}

	o := options{stiffness: DefaultStiffness, mass: DefaultMass}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stiffness < 0 {
		return nil, fmt.Errorf("stiffness %f: %w", o.stiffness, dynamo.ErrParameterBounds)
	}

	pd := particles.New()
	pd.Reserve(len(rest))
	for i, x := range rest {
		pd.AddVertex(x)
		if o.fixed != nil && o.fixed(i, x) {
			pd.SetMass(i, 0)
		} else {
			pd.SetMass(i, o.mass)
		}
	}

	model := &TetModel{
		Particles: pd,
		Mesh:      m,
		stiffness: o.stiffness,
	}
	if err := model.initConstraints(); err != nil {
		return nil, err
	}
	return model, nil
}

// FromGeometry is New for a generated mesh.
func FromGeometry(g mesh.Geometry, opts ...Option) (*TetModel, error) {
	return New(g.Mesh, g.Positions, opts...)
}

func (m *TetModel) initConstraints() error {
	n := m.Mesh.NumTets()
	m.constraints = make([]TetConstraint, n)

	rest := make([]mgl64.Vec3, m.Particles.Size())
	for i := range rest {
		rest[i] = m.Particles.Position0(i)
	}

	for i := 0; i < n; i++ {
		p := m.Mesh.TetPositions(i, rest)

		c := &m.constraints[i]
		c.RestVolume = pbd.TetVolume(p)

		var ok bool
		if _, c.InvRestMatFEM, ok = pbd.InitFEMTetra(p); !ok {
			return fmt.Errorf("tet %d %v: %w", i, m.Mesh.Tet(i), dynamo.ErrDegenerateElement)
		}
		if c.InvRestMatSBD, ok = pbd.InitStrainTetra(p); !ok {
			return fmt.Errorf("tet %d %v: %w", i, m.Mesh.Tet(i), dynamo.ErrDegenerateElement)
		}
	}
	return nil
}

// TetConstraints returns the per-tet records. Callers must not modify them.
func (m *TetModel) TetConstraints() []TetConstraint { return m.constraints }

func (m *TetModel) Stiffness() float64 { return m.stiffness }

func (m *TetModel) SetStiffness(k float64) { m.stiffness = k }

// TetPositions gathers the current positions of tet i.
func (m *TetModel) TetPositions(i int) [4]mgl64.Vec3 {
	t := m.Mesh.Tet(i)
	pd := m.Particles
	return [4]mgl64.Vec3{pd.Position(t[0]), pd.Position(t[1]), pd.Position(t[2]), pd.Position(t[3])}
}

// Volume is the current signed volume of tet i.
func (m *TetModel) Volume(i int) float64 {
	return pbd.TetVolume(m.TetPositions(i))
}

// RestVolume is the sum of all signed rest volumes.
func (m *TetModel) RestVolume() float64 {
	total := 0.0
	for _, c := range m.constraints {
		total += c.RestVolume
	}
	return total
}

// Reset restores the initial configuration.
func (m *TetModel) Reset() {
	m.Particles.Reset()
}
