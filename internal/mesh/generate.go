package mesh

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/pbd"
)

// Geometry pairs a topology with its rest positions.
type Geometry struct {
	Mesh      *IndexedTetMesh
	Positions []mgl64.Vec3
}

// BarSpec describes a regular grid of Width x Height x Depth points.
type BarSpec struct {
	Width   int
	Height  int
	Depth   int
	Spacing float64
	Origin  mgl64.Vec3
}

func DefaultBarSpec() BarSpec {
	return BarSpec{Width: 30, Height: 5, Depth: 5, Spacing: 0.3}
}

// Cell corners by bit pattern: bit0 -> +x, bit1 -> +y, bit2 -> +z.
var (
	evenCellTets = [5][4]int{{0, 3, 5, 6}, {1, 0, 3, 5}, {2, 0, 3, 6}, {4, 0, 5, 6}, {7, 3, 5, 6}}
	oddCellTets  = [5][4]int{{1, 2, 4, 7}, {0, 1, 2, 4}, {3, 1, 2, 7}, {5, 1, 4, 7}, {6, 2, 4, 7}}
)

// Bar builds a box of tetrahedra. Each grid cell is split into five tets;
// the split alternates with cell parity so shared faces match. Every tet is
// wound to a positive rest volume.
func Bar(spec BarSpec) Geometry {
	w, h, d := spec.Width, spec.Height, spec.Depth
	index := func(i, j, k int) int { return i*h*d + j*d + k }

	positions := make([]mgl64.Vec3, 0, w*h*d)
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			for k := 0; k < d; k++ {
				p := mgl64.Vec3{float64(i), float64(j), float64(k)}.Mul(spec.Spacing)
				positions = append(positions, p.Add(spec.Origin))
			}
		}
	}

	m := New(len(positions))
	for i := 0; i < w-1; i++ {
		for j := 0; j < h-1; j++ {
			for k := 0; k < d-1; k++ {
				var corner [8]int
				for b := 0; b < 8; b++ {
					corner[b] = index(i+b&1, j+(b>>1)&1, k+(b>>2)&1)
				}
				pattern := evenCellTets
				if (i+j+k)%2 == 1 {
					pattern = oddCellTets
				}
				for _, t := range pattern {
					m.AddTet(corner[t[0]], corner[t[1]], corner[t[2]], corner[t[3]])
				}
			}
		}
	}

	orient(m, positions)
	m.BuildEdges()
	return Geometry{Mesh: m, Positions: positions}
}

// Cube is a bar with n points along every axis.
func Cube(n int, spacing float64) Geometry {
	return Bar(BarSpec{Width: n, Height: n, Depth: n, Spacing: spacing})
}

// SingleTet is the unit corner tetrahedron with rest volume 1/6.
func SingleTet() Geometry {
	positions := []mgl64.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	m := New(len(positions))
	m.AddTet(0, 1, 2, 3)
	m.BuildEdges()
	return Geometry{Mesh: m, Positions: positions}
}

func orient(m *IndexedTetMesh, positions []mgl64.Vec3) {
	for i := 0; i < m.NumTets(); i++ {
		if pbd.TetVolume(m.TetPositions(i, positions)) < 0 {
			m.SwapWinding(i)
		}
	}
}
