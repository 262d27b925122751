package pbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// TetVolume is the signed volume 1/6 * ((p1-p0) x (p2-p0)) . (p3-p0).
func TetVolume(p [4]mgl64.Vec3) float64 {
	return (1.0 / 6.0) * p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Dot(p[3].Sub(p[0]))
}

// SolveVolume projects a tetrahedron toward its signed rest volume.
// negStiffness applies while the tet is inverted, posStiffness otherwise; a
// zero stiffness for the current sign disables the constraint.
func SolveVolume(p [4]mgl64.Vec3, w [4]float64, restVolume, negStiffness, posStiffness float64) (corr [4]mgl64.Vec3, ok bool) {
	volume := TetVolume(p)

	if posStiffness == 0 && volume > 0 {
		return corr, false
	}
	if negStiffness == 0 && volume < 0 {
		return corr, false
	}

	grad := [4]mgl64.Vec3{
		p[1].Sub(p[2]).Cross(p[3].Sub(p[2])),
		p[2].Sub(p[0]).Cross(p[3].Sub(p[0])),
		p[0].Sub(p[1]).Cross(p[3].Sub(p[1])),
		p[1].Sub(p[0]).Cross(p[2].Sub(p[0])),
	}

	lambda := 0.0
	for i := range grad {
		lambda += w[i] * grad[i].LenSqr()
	}
	if math.Abs(lambda) < eps {
		return corr, false
	}

	k := posStiffness
	if volume < 0 {
		k = negStiffness
	}
	lambda = k * (volume - restVolume) / lambda

	for i := range grad {
		corr[i] = grad[i].Mul(-lambda * w[i])
	}
	return corr, true
}
