package particles

import "github.com/go-gl/mathgl/mgl64"

// Data is the particle state store. Particles are addressed by index into
// parallel arrays; nothing here validates invariants, callers must check
// InvMass before moving a particle.
type Data struct {
	masses    []float64
	invMasses []float64
	x0        []mgl64.Vec3
	x         []mgl64.Vec3
	v         []mgl64.Vec3
	a         []mgl64.Vec3
	oldX      []mgl64.Vec3
}

func New() *Data {
	return &Data{}
}

// Reserve grows capacity for n more particles.
func (d *Data) Reserve(n int) {
	grow := func(s []mgl64.Vec3) []mgl64.Vec3 {
		out := make([]mgl64.Vec3, len(s), len(s)+n)
		copy(out, s)
		return out
	}
	d.x0, d.x, d.v, d.a, d.oldX = grow(d.x0), grow(d.x), grow(d.v), grow(d.a), grow(d.oldX)
}

// AddVertex appends a particle at rest at x with unit mass and returns its index.
func (d *Data) AddVertex(x mgl64.Vec3) int {
	d.x0 = append(d.x0, x)
	d.x = append(d.x, x)
	d.oldX = append(d.oldX, x)
	d.v = append(d.v, mgl64.Vec3{})
	d.a = append(d.a, mgl64.Vec3{})
	d.masses = append(d.masses, 1.0)
	d.invMasses = append(d.invMasses, 1.0)
	return len(d.x) - 1
}

func (d *Data) Size() int { return len(d.x) }

func (d *Data) Position(i int) mgl64.Vec3        { return d.x[i] }
func (d *Data) SetPosition(i int, p mgl64.Vec3)  { d.x[i] = p }
func (d *Data) Position0(i int) mgl64.Vec3       { return d.x0[i] }
func (d *Data) SetPosition0(i int, p mgl64.Vec3) { d.x0[i] = p }

func (d *Data) LastPosition(i int) mgl64.Vec3       { return d.oldX[i] }
func (d *Data) SetLastPosition(i int, p mgl64.Vec3) { d.oldX[i] = p }

func (d *Data) Velocity(i int) mgl64.Vec3            { return d.v[i] }
func (d *Data) SetVelocity(i int, v mgl64.Vec3)      { d.v[i] = v }
func (d *Data) Acceleration(i int) mgl64.Vec3        { return d.a[i] }
func (d *Data) SetAcceleration(i int, a mgl64.Vec3)  { d.a[i] = a }
func (d *Data) Mass(i int) float64                   { return d.masses[i] }
func (d *Data) InvMass(i int) float64                { return d.invMasses[i] }

// SetMass sets the mass and derives the inverse mass. A zero mass makes the
// particle kinematic.
func (d *Data) SetMass(i int, m float64) {
	d.masses[i] = m
	if m != 0 {
		d.invMasses[i] = 1.0 / m
	} else {
		d.invMasses[i] = 0
	}
}

// Reset returns every particle to its rest position with zero velocity and
// acceleration. Masses are kept.
func (d *Data) Reset() {
	for i := range d.x {
		d.x[i] = d.x0[i]
		d.oldX[i] = d.x0[i]
		d.v[i] = mgl64.Vec3{}
		d.a[i] = mgl64.Vec3{}
	}
}

// Positions returns a copy of the current positions.
func (d *Data) Positions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(d.x))
	copy(out, d.x)
	return out
}

// NumDynamic counts particles with non-zero inverse mass.
func (d *Data) NumDynamic() int {
	n := 0
	for _, w := range d.invMasses {
		if w != 0 {
			n++
		}
	}
	return n
}
