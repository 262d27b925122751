package mesh

import "github.com/go-gl/mathgl/mgl64"

// Edge is an unordered pair of vertex indices, stored smaller index first.
type Edge [2]int

func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// tetEdges lists the six vertex pairs of a tetrahedron by local index.
var tetEdges = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// IndexedTetMesh holds tetrahedral topology as a flat index buffer (4 per
// tet) plus the derived edge list. Positions live in the particle store.
type IndexedTetMesh struct {
	numVertices int
	tets        []int
	edges       []Edge
	edgeSet     map[Edge]struct{}
}

func New(numVertices int) *IndexedTetMesh {
	return &IndexedTetMesh{
		numVertices: numVertices,
		tets:        make([]int, 0),
		edges:       make([]Edge, 0),
		edgeSet:     make(map[Edge]struct{}),
	}
}

func (m *IndexedTetMesh) NumVertices() int { return m.numVertices }
func (m *IndexedTetMesh) NumTets() int     { return len(m.tets) / 4 }
func (m *IndexedTetMesh) NumEdges() int    { return len(m.edges) }

// Tets returns the flat index buffer. Callers must not modify it.
func (m *IndexedTetMesh) Tets() []int { return m.tets }

// Edges returns the edge list. Callers must not modify it.
func (m *IndexedTetMesh) Edges() []Edge { return m.edges }

func (m *IndexedTetMesh) Tet(i int) [4]int {
	return [4]int{m.tets[4*i], m.tets[4*i+1], m.tets[4*i+2], m.tets[4*i+3]}
}

// TetPositions gathers the four corner positions of tet i from xs.
func (m *IndexedTetMesh) TetPositions(i int, xs []mgl64.Vec3) [4]mgl64.Vec3 {
	t := m.Tet(i)
	return [4]mgl64.Vec3{xs[t[0]], xs[t[1]], xs[t[2]], xs[t[3]]}
}

// AddTet appends a tetrahedron. Winding order is preserved as given.
func (m *IndexedTetMesh) AddTet(v1, v2, v3, v4 int) {
	m.tets = append(m.tets, v1, v2, v3, v4)
}

// AddEdge appends an edge unless the same pair is already present.
func (m *IndexedTetMesh) AddEdge(a, b int) bool {
	e := NewEdge(a, b)
	if _, ok := m.edgeSet[e]; ok {
		return false
	}
	m.edgeSet[e] = struct{}{}
	m.edges = append(m.edges, e)
	return true
}

// BuildEdges adds the six edges of every tetrahedron in first-seen order.
func (m *IndexedTetMesh) BuildEdges() {
	for i := 0; i < m.NumTets(); i++ {
		t := m.Tet(i)
		for _, p := range tetEdges {
			m.AddEdge(t[p[0]], t[p[1]])
		}
	}
}

// SwapWinding exchanges the last two vertices of tet i, flipping its
// orientation.
func (m *IndexedTetMesh) SwapWinding(i int) {
	m.tets[4*i+2], m.tets[4*i+3] = m.tets[4*i+3], m.tets[4*i+2]
}
