package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/mesh"
)

// Camera is an orthographic view of the body, rotated about its center.
type Camera struct {
	Center     mgl64.Vec3
	RotX, RotY float64
	Scale      float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{RotX: 0.35, RotY: -0.45, Scale: 1, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Fit centers the camera on the bounding box of ps and scales it to the
// unit half-extent.
func (c *Camera) Fit(ps []mgl64.Vec3) {
	if len(ps) == 0 {
		return
	}
	lo, hi := ps[0], ps[0]
	for _, p := range ps[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	c.Center = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		radius = 1
	}
	c.Scale = 1 / radius
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.RotX).Mul3(mgl64.Rotate3DY(c.RotY))
}

// Project maps a world point to sub-pixel coordinates on a sw x sh screen.
// Returns x, y, depth, and visibility.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	q := c.rotation().Mul3x1(p.Sub(c.Center)).Mul(c.Scale * c.Zoom)
	half := 0.45 * float64(min(sw, sh))
	sx := int(math.Round(q[0]*half)) + sw/2
	sy := int(math.Round(-q[1]*half)) + sh/2
	return sx, sy, q[2], sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// DrawMesh draws every edge with both ends on screen, or the particles
// when there are no edges.
func DrawMesh(c *Canvas, cam *Camera, positions []mgl64.Vec3, edges []mesh.Edge) {
	if c == nil || cam == nil {
		return
	}
	sw, sh := c.SubWidth(), c.SubHeight()

	if len(edges) == 0 {
		for _, p := range positions {
			if x, y, _, ok := cam.Project(p, sw, sh); ok {
				c.Set(x, y)
			}
		}
		return
	}

	for _, e := range edges {
		x1, y1, _, v1 := cam.Project(positions[e[0]], sw, sh)
		x2, y2, _, v2 := cam.Project(positions[e[1]], sw, sh)
		if v1 && v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}
}
