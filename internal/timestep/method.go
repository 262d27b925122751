package timestep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/pbd"
)

// inversionRatio is the current/rest volume ratio below which the FEM
// solver switches to its inversion-robust stress.
const inversionRatio = 0.2

const DefaultPoissonRatio = 0.3

// Method selects how tetrahedra are projected. The set of implementations
// is closed: DistanceVolume, FEM and StrainBased.
type Method interface {
	Kind() Kind

	// projectsEdges reports whether the edge distance sweep runs before the
	// tet sweep.
	projectsEdges() bool
	solveTet(p [4]mgl64.Vec3, w [4]float64, c *model.TetConstraint, stiffness float64) ([4]mgl64.Vec3, bool)
}

// DistanceVolume keeps edge lengths and signed tet volumes at rest.
type DistanceVolume struct{}

func (DistanceVolume) Kind() Kind          { return KindDistanceVolume }
func (DistanceVolume) projectsEdges() bool { return true }

func (DistanceVolume) solveTet(p [4]mgl64.Vec3, w [4]float64, c *model.TetConstraint, k float64) ([4]mgl64.Vec3, bool) {
	return pbd.SolveVolume(p, w, c.RestVolume, k, k)
}

// FEM minimises the St. Venant-Kirchhoff energy of each tet with the model
// stiffness as Young's modulus.
type FEM struct {
	PoissonRatio float64
}

func (FEM) Kind() Kind          { return KindFEM }
func (FEM) projectsEdges() bool { return false }

func (f FEM) solveTet(p [4]mgl64.Vec3, w [4]float64, c *model.TetConstraint, k float64) ([4]mgl64.Vec3, bool) {
	current := -(1.0 / 6.0) * p[3].Sub(p[0]).Dot(p[2].Sub(p[0]).Cross(p[1].Sub(p[0])))
	handleInversion := current/c.RestVolume < inversionRatio
	return pbd.SolveFEMTetra(p, w, c.RestVolume, c.InvRestMatFEM, k, f.PoissonRatio, handleInversion)
}

// StrainBased projects stretch and shear strains with the model stiffness
// on every axis.
type StrainBased struct {
	NormalizeStretch bool
	NormalizeShear   bool
}

func (StrainBased) Kind() Kind          { return KindStrainBased }
func (StrainBased) projectsEdges() bool { return false }

func (s StrainBased) solveTet(p [4]mgl64.Vec3, w [4]float64, c *model.TetConstraint, k float64) ([4]mgl64.Vec3, bool) {
	stiffness := mgl64.Vec3{k, k, k}
	return pbd.SolveStrainTetra(p, w, c.InvRestMatSBD, stiffness, stiffness, s.NormalizeStretch, s.NormalizeShear)
}

// Kind is the numeric method selector used in configs and on the command
// line.
type Kind int

const (
	KindDistanceVolume Kind = 1
	KindFEM            Kind = 2
	KindStrainBased    Kind = 3
)

var kindNames = map[Kind]string{
	KindDistanceVolume: "distance",
	KindFEM:            "fem",
	KindStrainBased:    "sbd",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Kinds lists every method selector in numeric order.
func Kinds() []Kind {
	return []Kind{KindDistanceVolume, KindFEM, KindStrainBased}
}

// ParseKind accepts a method name ("distance", "fem", "sbd") or its number.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if k := Kind(n); k.Valid() {
			return k, nil
		}
		return 0, fmt.Errorf("method %d: %w", n, dynamo.ErrUnknownMethod)
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("method %q: %w", s, dynamo.ErrUnknownMethod)
}

// Params carries the per-method settings a Kind is turned into.
type Params struct {
	PoissonRatio     float64
	NormalizeStretch bool
	NormalizeShear   bool
}

func DefaultParams() Params {
	return Params{PoissonRatio: DefaultPoissonRatio}
}

func NewMethod(k Kind, p Params) (Method, error) {
	switch k {
	case KindDistanceVolume:
		return DistanceVolume{}, nil
	case KindFEM:
		return FEM{PoissonRatio: p.PoissonRatio}, nil
	case KindStrainBased:
		return StrainBased{NormalizeStretch: p.NormalizeStretch, NormalizeShear: p.NormalizeShear}, nil
	}
	return nil, fmt.Errorf("method %d: %w", int(k), dynamo.ErrUnknownMethod)
}
