package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/model"
)

// KineticEnergy returns sum 1/2 m |v|^2 over all particles.
func KineticEnergy(m *model.TetModel) float64 {
	pd := m.Particles
	ke := 0.0
	for i := 0; i < pd.Size(); i++ {
		ke += 0.5 * pd.Mass(i) * pd.Velocity(i).LenSqr()
	}
	return ke
}

// PotentialEnergy is the gravitational energy relative to the origin.
func PotentialEnergy(m *model.TetModel) float64 {
	pd := m.Particles
	pe := 0.0
	for i := 0; i < pd.Size(); i++ {
		pe -= pd.Mass(i) * dynamo.Gravity.Dot(pd.Position(i))
	}
	return pe
}

type Energy struct {
	name        string
	last        float64
	totalEnergy float64
	samples     int
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(m *model.TetModel, t float64) {
	e.last = KineticEnergy(m)
	e.totalEnergy += e.last
	e.samples++
}

// Value is the mean kinetic energy over the run.
func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.last = 0
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift reports the largest relative change of total mechanical
// energy. PBD damps, so this mostly measures dissipation.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(m *model.TetModel, t float64) {
	energy := KineticEnergy(m) + PotentialEnergy(m)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
