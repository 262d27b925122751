package timestep

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/pbd"
)

var _ = Describe("FEM inversion switch", func() {
	const poisson = 0.3

	// The unit corner tet with its apex at height z has volume ratio z.
	DescribeTable("selects the stress by current/rest volume ratio",
		func(ratio float64, inversion bool) {
			m, err := model.FromGeometry(mesh.SingleTet())
			Expect(err).NotTo(HaveOccurred())
			c := m.TetConstraints()[0]

			p := [4]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, ratio}}
			w := [4]float64{1, 1, 1, 1}

			got, ok := FEM{PoissonRatio: poisson}.solveTet(p, w, &c, 1)
			Expect(ok).To(BeTrue())

			want, _ := pbd.SolveFEMTetra(p, w, c.RestVolume, c.InvRestMatFEM, 1, poisson, inversion)
			other, _ := pbd.SolveFEMTetra(p, w, c.RestVolume, c.InvRestMatFEM, 1, poisson, !inversion)
			Expect(got).To(Equal(want))
			Expect(got).NotTo(Equal(other))
		},
		Entry("just below the threshold", 0.19, true),
		Entry("just above the threshold", 0.21, false),
	)
})
