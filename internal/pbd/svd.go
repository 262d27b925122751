package pbd

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// svd3 factorises F = U diag(s) V^T. U and V are orthogonal but may be
// reflections; s is non-negative and sorted in descending order.
func svd3(F mgl64.Mat3) (U, V mgl64.Mat3, s mgl64.Vec3, ok bool) {
	data := make([]float64, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data[3*i+j] = F.At(i, j)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(mat.NewDense(3, 3, data), mat.SVDFull) {
		return U, V, s, false
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vals := svd.Values(nil)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			U.Set(i, j, u.At(i, j))
			V.Set(i, j, v.At(i, j))
		}
	}
	return U, V, mgl64.Vec3{vals[0], vals[1], vals[2]}, true
}

func argMin(v mgl64.Vec3) int {
	pos := 0
	for i := 1; i < 3; i++ {
		if v[i] < v[pos] {
			pos = i
		}
	}
	return pos
}

func negateCol(m mgl64.Mat3, col int) mgl64.Mat3 {
	for row := 0; row < 3; row++ {
		m.Set(row, col, -m.At(row, col))
	}
	return m
}
