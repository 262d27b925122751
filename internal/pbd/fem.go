package pbd

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// minSingularValue clamps singular values of an inverted or crushed
// element so the restoring stress stays bounded.
const minSingularValue = 0.577

// InitFEMTetra computes the rest volume magnitude and the inverse rest
// shape matrix [p0-p3 | p1-p3 | p2-p3]^-1. ok is false when the rest
// shape is degenerate.
func InitFEMTetra(p [4]mgl64.Vec3) (volume float64, invRestMat mgl64.Mat3, ok bool) {
	volume = math.Abs((1.0 / 6.0) * p[3].Sub(p[0]).Dot(p[2].Sub(p[0]).Cross(p[1].Sub(p[0]))))

	m := mgl64.Mat3FromCols(p[0].Sub(p[3]), p[1].Sub(p[3]), p[2].Sub(p[3]))
	if math.Abs(m.Det()) <= eps {
		return volume, invRestMat, false
	}
	return volume, m.Inv(), true
}

func lame(youngsModulus, poissonRatio float64) (mu, lambda float64) {
	mu = youngsModulus / (2.0 * (1.0 + poissonRatio))
	lambda = youngsModulus * poissonRatio / ((1.0 + poissonRatio) * (1.0 - 2.0*poissonRatio))
	return mu, lambda
}

func deformationGradient(p [4]mgl64.Vec3, invRestMat mgl64.Mat3) mgl64.Mat3 {
	P := mgl64.Mat3FromCols(p[0].Sub(p[3]), p[1].Sub(p[3]), p[2].Sub(p[3]))
	return P.Mul3(invRestMat)
}

// piolaStress returns the first Piola-Kirchhoff stress of a St.
// Venant-Kirchhoff material and the element energy restVolume * psi.
func piolaStress(F mgl64.Mat3, restVolume, youngsModulus, poissonRatio float64) (sigma mgl64.Mat3, energy float64) {
	mu, lambda := lame(youngsModulus, poissonRatio)

	strain := F.Transpose().Mul3(F).Sub(mgl64.Ident3()).Mul(0.5)
	trace := strain.Trace()

	S := strain.Mul(2 * mu).Add(mgl64.Ident3().Mul(lambda * trace))
	sigma = F.Mul3(S)

	psi := 0.0
	for _, e := range strain {
		psi += e * e
	}
	psi = mu*psi + 0.5*lambda*trace*trace
	return sigma, restVolume * psi
}

// piolaStressInversion is piolaStress evaluated on the diagonalised
// deformation F = U diag(hatF) V^T. U and V are kept proper rotations,
// reflections move onto the smallest singular value and every singular
// value is clamped from below. A failed factorisation yields zero stress.
func piolaStressInversion(F mgl64.Mat3, restVolume, youngsModulus, poissonRatio float64) (sigma mgl64.Mat3, energy float64) {
	mu, lambda := lame(youngsModulus, poissonRatio)

	U, V, hatF, ok := svd3(F)
	if !ok {
		return sigma, 0
	}
	if V.Det() < 0 {
		pos := argMin(hatF)
		V = negateCol(V, pos)
		U = negateCol(U, pos)
	}
	if U.Det()*V.Det() < 0 {
		pos := argMin(hatF)
		hatF[pos] = -hatF[pos]
		U = negateCol(U, pos)
	}

	for i := 0; i < 3; i++ {
		if hatF[i] < minSingularValue {
			hatF[i] = minSingularValue
		}
	}

	var strainHat, sigmaHat mgl64.Vec3
	trace := 0.0
	for i := 0; i < 3; i++ {
		strainHat[i] = 0.5 * (hatF[i]*hatF[i] - 1.0)
		trace += strainHat[i]
	}
	psi := 0.0
	for i := 0; i < 3; i++ {
		sigmaHat[i] = hatF[i] * (2*mu*strainHat[i] + lambda*trace)
		psi += strainHat[i] * strainHat[i]
	}
	psi = mu*psi + 0.5*lambda*trace*trace

	sigma = U.Mul3(mgl64.Diag3(sigmaHat)).Mul3(V.Transpose())
	return sigma, restVolume * psi
}

// SolveFEMTetra projects a tetrahedron along the gradient of its elastic
// energy. handleInversion selects the inversion-robust stress, which the
// caller enables once the element has lost most of its volume.
func SolveFEMTetra(p [4]mgl64.Vec3, w [4]float64, restVolume float64, invRestMat mgl64.Mat3,
	youngsModulus, poissonRatio float64, handleInversion bool) (corr [4]mgl64.Vec3, ok bool) {

	F := deformationGradient(p, invRestMat)

	var sigma mgl64.Mat3
	var energy float64
	if handleInversion {
		sigma, energy = piolaStressInversion(F, restVolume, youngsModulus, poissonRatio)
	} else {
		sigma, energy = piolaStress(F, restVolume, youngsModulus, poissonRatio)
	}

	H := sigma.Mul3(invRestMat.Transpose()).Mul(restVolume)
	var grad [4]mgl64.Vec3
	grad[0], grad[1], grad[2] = H.Col(0), H.Col(1), H.Col(2)
	grad[3] = grad[0].Add(grad[1]).Add(grad[2]).Mul(-1)

	sumNormGrad := 0.0
	for i := range grad {
		sumNormGrad += w[i] * grad[i].LenSqr()
	}
	if sumNormGrad < eps {
		return corr, false
	}

	s := energy / sumNormGrad
	for i := range grad {
		corr[i] = grad[i].Mul(-s * w[i])
	}
	return corr, true
}
