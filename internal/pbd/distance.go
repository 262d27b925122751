package pbd

import "github.com/go-gl/mathgl/mgl64"

const eps = 1e-6

// SolveDistance projects two particles toward restLength. Compression and
// stretch use separate stiffness factors in [0, 1].
func SolveDistance(p0 mgl64.Vec3, invMass0 float64, p1 mgl64.Vec3, invMass1 float64,
	restLength, compressionStiffness, stretchStiffness float64) (corr0, corr1 mgl64.Vec3, ok bool) {

	wSum := invMass0 + invMass1
	if wSum == 0 {
		return corr0, corr1, false
	}

	n := p1.Sub(p0)
	d := n.Len()
	if d < eps {
		return corr0, corr1, false
	}
	n = n.Mul(1.0 / d)

	k := stretchStiffness
	if d < restLength {
		k = compressionStiffness
	}
	corr := n.Mul(k * (d - restLength) / wSum)

	return corr.Mul(invMass0), corr.Mul(-invMass1), true
}
