package timestep_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/timestep"
)

const h = 0.005

var smallBar = mesh.BarSpec{Width: 6, Height: 3, Depth: 3, Spacing: 0.3}

func newBar() *model.TetModel {
	m, err := model.FromGeometry(mesh.Bar(smallBar), model.WithFixed(model.FixedBelowX(0)))
	Expect(err).NotTo(HaveOccurred())
	return m
}

func newSingleTet() *model.TetModel {
	m, err := model.FromGeometry(mesh.SingleTet())
	Expect(err).NotTo(HaveOccurred())
	return m
}

func scale(m *model.TetModel, k float64) {
	pd := m.Particles
	for i := 0; i < pd.Size(); i++ {
		pd.SetPosition(i, pd.Position0(i).Mul(k))
	}
}

func copyState(dst, src *model.TetModel) {
	for i := 0; i < src.Particles.Size(); i++ {
		dst.Particles.SetPosition(i, src.Particles.Position(i))
		dst.Particles.SetLastPosition(i, src.Particles.LastPosition(i))
		dst.Particles.SetVelocity(i, src.Particles.Velocity(i))
	}
}

func expectFinite(m *model.TetModel) {
	ExpectWithOffset(1, dynamo.PositionsValid(m.Particles.Positions())).To(BeTrue())
}

var allMethods = []TableEntry{
	Entry("distance + volume", timestep.DistanceVolume{}),
	Entry("FEM", timestep.FEM{PoissonRatio: 0.3}),
	Entry("strain based", timestep.StrainBased{}),
	Entry("strain based, normalised", timestep.StrainBased{NormalizeStretch: true, NormalizeShear: true}),
}

var _ = Describe("TimeStep", func() {
	Describe("Step", func() {
		It("applies gravity to a free particle and advances the clock", func() {
			msh := mesh.New(1)
			m, err := model.New(msh, []mgl64.Vec3{{0, 0, 0}})
			Expect(err).NotTo(HaveOccurred())

			clock := dynamo.NewClock(h)
			timestep.New(timestep.DistanceVolume{}).Step(clock, m)

			x := m.Particles.Position(0)
			Expect(x[1]).To(BeNumerically("~", -9.81*h*h, 1e-15))
			Expect(m.Particles.Velocity(0)[1]).To(BeNumerically("~", -9.81*h, 1e-12))
			Expect(m.Particles.Acceleration(0)).To(Equal(dynamo.Gravity))
			Expect(clock.Time).To(Equal(h))
		})

		It("leaves the acceleration of fixed particles untouched", func() {
			m := newBar()
			timestep.New(nil).Step(dynamo.NewClock(h), m)

			pd := m.Particles
			for i := 0; i < pd.Size(); i++ {
				if pd.InvMass(i) == 0 {
					Expect(pd.Acceleration(i)).To(Equal(mgl64.Vec3{}))
				}
			}
		})

		DescribeTable("rebuilds every velocity from the position change",
			func(method timestep.Method) {
				m := newBar()
				clock := dynamo.NewClock(h)
				ts := timestep.New(method)
				for i := 0; i < 10; i++ {
					ts.Step(clock, m)
				}

				pd := m.Particles
				for i := 0; i < pd.Size(); i++ {
					want := pd.Position(i).Sub(pd.LastPosition(i)).Mul(1.0 / h)
					Expect(pd.Velocity(i)).To(Equal(want), "particle %d", i)
				}
			},
			allMethods,
		)

		DescribeTable("never moves fixed particles",
			func(method timestep.Method) {
				m := newBar()
				clock := dynamo.NewClock(h)
				ts := timestep.New(method)
				for i := 0; i < 50; i++ {
					ts.Step(clock, m)
				}

				pd := m.Particles
				fixed := 0
				for i := 0; i < pd.Size(); i++ {
					if pd.InvMass(i) != 0 {
						continue
					}
					fixed++
					Expect(pd.Position(i)).To(Equal(pd.Position0(i)))
					Expect(pd.Velocity(i)).To(Equal(mgl64.Vec3{}))
				}
				Expect(fixed).To(Equal(smallBar.Height * smallBar.Depth))
				expectFinite(m)
			},
			allMethods,
		)

		It("bends a cantilevered bar downwards", func() {
			m := newBar()
			clock := dynamo.NewClock(h)
			ts := timestep.New(timestep.DistanceVolume{})
			for i := 0; i < 40; i++ {
				ts.Step(clock, m)
			}

			tip := m.Particles.Size() - 1
			Expect(m.Particles.Position(tip)[1]).To(BeNumerically("<", m.Particles.Position0(tip)[1]))
			Expect(clock.Time).To(BeNumerically("~", 40*h, 1e-12))
		})
	})

	Describe("ConstraintProjection", func() {
		DescribeTable("leaves a mesh at rest unchanged",
			func(method timestep.Method) {
				m := newBar()
				timestep.New(method).ConstraintProjection(m)

				pd := m.Particles
				for i := 0; i < pd.Size(); i++ {
					Expect(pd.Position(i).Sub(pd.Position0(i)).Len()).To(BeNumerically("<", 1e-9),
						"particle %d moved to %v", i, pd.Position(i))
				}
			},
			allMethods,
		)

		It("reduces the violation further with more iterations", func() {
			violation := func(n int) float64 {
				m, err := model.FromGeometry(mesh.Cube(3, 1))
				Expect(err).NotTo(HaveOccurred())
				scale(m, 1.2)
				timestep.New(timestep.DistanceVolume{}).ProjectIterations(m, n)
				return metrics.Violation(m)
			}

			v0, v1, v20 := violation(0), violation(1), violation(20)
			Expect(v1).To(BeNumerically("<", v0))
			Expect(v20).To(BeNumerically("<", v1))
		})

		It("reduces the strain of a stretched cube with strain based dynamics", func() {
			m, err := model.FromGeometry(mesh.Cube(3, 1))
			Expect(err).NotTo(HaveOccurred())
			scale(m, 1.2)

			before := metrics.EdgeViolation(m)
			timestep.New(timestep.StrainBased{}).ConstraintProjection(m)
			Expect(metrics.EdgeViolation(m)).To(BeNumerically("<", before))
		})

		It("moves only the free particle of a fixed pair", func() {
			msh := mesh.New(2)
			msh.AddEdge(0, 1)
			m, err := model.New(msh, []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}},
				model.WithFixed(func(i int, _ mgl64.Vec3) bool { return i == 1 }))
			Expect(err).NotTo(HaveOccurred())

			m.Particles.SetPosition(0, mgl64.Vec3{-1, 0, 0})
			timestep.New(timestep.DistanceVolume{}).ProjectIterations(m, 1)

			p0, p1 := m.Particles.Position(0), m.Particles.Position(1)
			Expect(p1).To(Equal(mgl64.Vec3{1, 0, 0}))
			Expect(p1.Sub(p0).Len()).To(BeNumerically("~", 1, 1e-12))
		})

		DescribeTable("pulls a scaled tet back toward its rest volume",
			func(k float64) {
				m := newSingleTet()
				scale(m, k)
				rest := m.TetConstraints()[0].RestVolume
				before := math.Abs(m.Volume(0) - rest)

				timestep.New(timestep.DistanceVolume{}).ConstraintProjection(m)
				Expect(math.Abs(m.Volume(0) - rest)).To(BeNumerically("<", before))
			},
			Entry("stretched", 1.5),
			Entry("shrunk", 0.7),
		)

		DescribeTable("keeps a crushed tet finite with FEM",
			func(top mgl64.Vec3) {
				m := newSingleTet()
				m.Particles.SetPosition(3, top)
				Expect(m.Volume(0) / m.TetConstraints()[0].RestVolume).To(BeNumerically("<", 0.2))

				ts := timestep.New(timestep.FEM{PoissonRatio: 0.3})
				ts.ConstraintProjection(m)
				expectFinite(m)

				ts.Step(dynamo.NewClock(h), m)
				expectFinite(m)
			},
			Entry("compressed to 10%", mgl64.Vec3{0, 0, 0.1}),
			Entry("flat", mgl64.Vec3{0.2, 0.2, 0}),
			Entry("inverted", mgl64.Vec3{0, 0, -0.5}),
		)
	})

	Describe("SetMethod", func() {
		It("switches the solver for the next step with no residue", func() {
			m := newBar()
			clock := dynamo.NewClock(h)
			ts := timestep.New(timestep.DistanceVolume{})
			for i := 0; i < 5; i++ {
				ts.Step(clock, m)
			}

			fresh, unchanged := newBar(), newBar()
			copyState(fresh, m)
			copyState(unchanged, m)

			ts.SetMethod(timestep.StrainBased{})
			Expect(ts.Method().Kind()).To(Equal(timestep.KindStrainBased))

			c1, c2, c3 := *clock, *clock, *clock
			ts.Step(&c1, m)
			timestep.New(timestep.StrainBased{}).Step(&c2, fresh)
			timestep.New(timestep.DistanceVolume{}).Step(&c3, unchanged)

			Expect(m.Particles.Positions()).To(Equal(fresh.Particles.Positions()))
			Expect(m.Particles.Positions()).NotTo(Equal(unchanged.Particles.Positions()))
		})

		It("ignores a nil method", func() {
			ts := timestep.New(timestep.FEM{PoissonRatio: 0.3})
			ts.SetMethod(nil)
			Expect(ts.Method()).To(Equal(timestep.FEM{PoissonRatio: 0.3}))
		})
	})

	Describe("Reset", func() {
		It("restores the rest configuration", func() {
			m := newBar()
			clock := dynamo.NewClock(h)
			ts := timestep.New(nil)
			for i := 0; i < 10; i++ {
				ts.Step(clock, m)
			}
			ts.Reset(m)

			pd := m.Particles
			for i := 0; i < pd.Size(); i++ {
				Expect(pd.Position(i)).To(Equal(pd.Position0(i)))
				Expect(pd.Velocity(i)).To(Equal(mgl64.Vec3{}))
			}
		})
	})
})

var _ = Describe("Kind", func() {
	DescribeTable("ParseKind",
		func(in string, want timestep.Kind) {
			Expect(timestep.ParseKind(in)).To(Equal(want))
		},
		Entry("name", "distance", timestep.KindDistanceVolume),
		Entry("upper case", "FEM", timestep.KindFEM),
		Entry("number", "3", timestep.KindStrainBased),
		Entry("padded", " sbd ", timestep.KindStrainBased),
	)

	It("rejects unknown methods", func() {
		for _, in := range []string{"", "4", "0", "verlet"} {
			_, err := timestep.ParseKind(in)
			Expect(err).To(MatchError(dynamo.ErrUnknownMethod), "input %q", in)
		}
	})

	It("builds a method carrying its parameters", func() {
		p := timestep.Params{PoissonRatio: 0.45, NormalizeShear: true}
		for _, k := range timestep.Kinds() {
			method, err := timestep.NewMethod(k, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(method.Kind()).To(Equal(k))
		}

		fem, _ := timestep.NewMethod(timestep.KindFEM, p)
		Expect(fem).To(Equal(timestep.FEM{PoissonRatio: 0.45}))
		sbd, _ := timestep.NewMethod(timestep.KindStrainBased, p)
		Expect(sbd).To(Equal(timestep.StrainBased{NormalizeShear: true}))

		_, err := timestep.NewMethod(timestep.Kind(7), p)
		Expect(err).To(MatchError(dynamo.ErrUnknownMethod))
	})

	It("prints names", func() {
		Expect(timestep.KindFEM.String()).To(Equal("fem"))
		Expect(timestep.Kind(9).String()).To(Equal("Kind(9)"))
	})
})
