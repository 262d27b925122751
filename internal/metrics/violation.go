package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/model"
)

// VolumeViolation is the sum of squared differences between current and
// rest signed tet volumes.
func VolumeViolation(m *model.TetModel) float64 {
	sum := 0.0
	for i, c := range m.TetConstraints() {
		d := m.Volume(i) - c.RestVolume
		sum += d * d
	}
	return sum
}

// EdgeViolation is the sum of squared differences between current and rest
// edge lengths.
func EdgeViolation(m *model.TetModel) float64 {
	pd := m.Particles
	sum := 0.0
	for _, e := range m.Mesh.Edges() {
		rest := pd.Position0(e[1]).Sub(pd.Position0(e[0])).Len()
		cur := pd.Position(e[1]).Sub(pd.Position(e[0])).Len()
		sum += (cur - rest) * (cur - rest)
	}
	return sum
}

// Violation is the combined constraint error used to compare methods.
func Violation(m *model.TetModel) float64 {
	return VolumeViolation(m) + EdgeViolation(m)
}

// VolumeError tracks the relative change of the total body volume and
// reports the largest one seen.
type VolumeError struct {
	name string
	last float64
	max  float64
}

func NewVolumeError() *VolumeError {
	return &VolumeError{name: "volume_error"}
}

func (v *VolumeError) Name() string { return v.name }

func (v *VolumeError) Observe(m *model.TetModel, t float64) {
	rest := m.RestVolume()
	if rest == 0 {
		return
	}
	cur := 0.0
	for i := range m.TetConstraints() {
		cur += m.Volume(i)
	}
	v.last = math.Abs(cur-rest) / math.Abs(rest)
	v.max = math.Max(v.max, v.last)
}

func (v *VolumeError) Value() float64 { return v.max }
func (v *VolumeError) Last() float64  { return v.last }

func (v *VolumeError) Reset() {
	v.last = 0
	v.max = 0
}

// EdgeStrain is the mean relative edge length change, averaged over all
// observations.
type EdgeStrain struct {
	name    string
	last    float64
	sum     float64
	samples int
}

func NewEdgeStrain() *EdgeStrain {
	return &EdgeStrain{name: "edge_strain"}
}

func (e *EdgeStrain) Name() string { return e.name }

func (e *EdgeStrain) Observe(m *model.TetModel, t float64) {
	edges := m.Mesh.Edges()
	if len(edges) == 0 {
		return
	}
	pd := m.Particles
	total := 0.0
	for _, ed := range edges {
		rest := pd.Position0(ed[1]).Sub(pd.Position0(ed[0])).Len()
		if rest == 0 {
			continue
		}
		cur := pd.Position(ed[1]).Sub(pd.Position(ed[0])).Len()
		total += math.Abs(cur-rest) / rest
	}
	e.last = total / float64(len(edges))
	e.sum += e.last
	e.samples++
}

func (e *EdgeStrain) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *EdgeStrain) Last() float64 { return e.last }

func (e *EdgeStrain) Reset() {
	e.last = 0
	e.sum = 0
	e.samples = 0
}
