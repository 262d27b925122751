package pbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// InitStrainTetra returns the inverse rest shape matrix
// [p1-p0 | p2-p0 | p3-p0]^-1. ok is false when the rest shape is degenerate.
func InitStrainTetra(p [4]mgl64.Vec3) (invRestMat mgl64.Mat3, ok bool) {
	m := mgl64.Mat3FromCols(p[1].Sub(p[0]), p[2].Sub(p[0]), p[3].Sub(p[0]))
	if math.Abs(m.Det()) <= eps {
		return invRestMat, false
	}
	return m.Inv(), true
}

// SolveStrainTetra projects the six Green strain components of a
// tetrahedron one after another. Each component sees the corrections of the
// previous ones. Stretch components S_ii target 1, shear components S_ij
// target 0; shear stiffness for (i, j) is shearStiffness[i+j-1].
func SolveStrainTetra(p [4]mgl64.Vec3, w [4]float64, invRestMat mgl64.Mat3,
	stretchStiffness, shearStiffness mgl64.Vec3, normalizeStretch, normalizeShear bool) (corr [4]mgl64.Vec3, ok bool) {

	var c [3]mgl64.Vec3
	c[0], c[1], c[2] = invRestMat.Col(0), invRestMat.Col(1), invRestMat.Col(2)

	for i := 0; i < 3; i++ {
		for j := 0; j <= i; j++ {
			x0 := p[0].Add(corr[0])
			P := mgl64.Mat3FromCols(
				p[1].Add(corr[1]).Sub(x0),
				p[2].Add(corr[2]).Sub(x0),
				p[3].Add(corr[3]).Sub(x0),
			)

			fi := P.Mul3x1(c[i])
			fj := P.Mul3x1(c[j])
			Sij := fi.Dot(fj)

			shear := normalizeShear && i != j
			var wi, wj, s1, s3 float64
			if shear {
				wi, wj = fi.Len(), fj.Len()
				if wi*wj < eps {
					continue
				}
				s1 = 1.0 / (wi * wj)
				s3 = s1 * s1 * s1
			}

			var d [4]mgl64.Vec3
			for k := 0; k < 3; k++ {
				d[k+1] = fj.Mul(invRestMat.At(k, i)).Add(fi.Mul(invRestMat.At(k, j)))
				if shear {
					t := fi.Mul(wj * wj * invRestMat.At(k, i)).Add(fj.Mul(wi * wi * invRestMat.At(k, j)))
					d[k+1] = d[k+1].Mul(s1).Sub(t.Mul(Sij * s3))
				}
				d[0] = d[0].Sub(d[k+1])
			}
			if shear {
				Sij *= s1
			}

			lambda := 0.0
			for k := range d {
				lambda += w[k] * d[k].LenSqr()
			}
			if math.Abs(lambda) < eps {
				continue
			}

			if i == j {
				if normalizeStretch {
					s := math.Sqrt(Sij)
					lambda = 2.0 * s * (s - 1.0) / lambda * stretchStiffness[i]
				} else {
					lambda = (Sij - 1.0) / lambda * stretchStiffness[i]
				}
			} else {
				lambda = Sij / lambda * shearStiffness[i+j-1]
			}

			for k := range d {
				corr[k] = corr[k].Sub(d[k].Mul(lambda * w[k]))
			}
		}
	}

	return corr, true
}
