// Package trimesh implements kernel.Solid for triangle meshes.
// Mesh solids back geometry loaded from CAD exchange files, where the
// source representation is a triangle soup rather than an SDF tree.
// Evaluate returns the unsigned distance to the nearest surface point.
package trimesh

import (
	"fmt"
	"math"

	"github.com/chazu/abut/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Solid = (*Mesh)(nil)

// Mesh is an immutable triangle mesh solid.
type Mesh struct {
	verts    [][3]float64
	tris     [][3]int
	min, max [3]float64
}

// New creates a mesh solid from a vertex list and triangle index list.
// Triangle indices must be within the vertex list.
func New(vertices [][3]float64, triangles [][3]int) (*Mesh, error) {
	if len(vertices) == 0 || len(triangles) == 0 {
		return nil, fmt.Errorf("trimesh: empty mesh (%d vertices, %d triangles)",
			len(vertices), len(triangles))
	}
	for _, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("trimesh: triangle index %d out of range [0,%d)", idx, len(vertices))
			}
		}
	}

	m := &Mesh{verts: vertices, tris: triangles}
	m.min = vertices[0]
	m.max = vertices[0]
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			m.min[i] = math.Min(m.min[i], v[i])
			m.max[i] = math.Max(m.max[i], v[i])
		}
	}
	return m, nil
}

// BoundingBox returns the axis-aligned bounding box.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	return m.min, m.max
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.tris)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.verts)
}

// Evaluate returns the unsigned distance from p to the mesh surface:
// the minimum over all triangles of the point-to-triangle distance.
func (m *Mesh) Evaluate(p [3]float64) float64 {
	best := math.Inf(1)
	for _, tri := range m.tris {
		q := closestPointOnTriangle(p, m.verts[tri[0]], m.verts[tri[1]], m.verts[tri[2]])
		if d := dist(p, q); d < best {
			best = d
		}
	}
	return best
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func add(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func dist(a, b [3]float64) float64 {
	d := sub(a, b)
	return math.Sqrt(dot(d, d))
}

// closestPointOnTriangle returns the point on triangle (a,b,c) closest to p.
// Standard Voronoi-region case analysis (Ericson, Real-Time Collision
// Detection, §5.1.5).
func closestPointOnTriangle(p, a, b, c [3]float64) [3]float64 {
	ab := sub(b, a)
	ac := sub(c, a)
	ap := sub(p, a)

	d1 := dot(ab, ap)
	d2 := dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a // vertex region A
	}

	bp := sub(p, b)
	d3 := dot(ab, bp)
	d4 := dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b // vertex region B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return add(a, scale(ab, v)) // edge region AB
	}

	cp := sub(p, c)
	d5 := dot(ab, cp)
	d6 := dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c // vertex region C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return add(a, scale(ac, w)) // edge region AC
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return add(b, scale(sub(c, b), w)) // edge region BC
	}

	// Face region: project onto the triangle plane.
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return add(a, add(scale(ab, v), scale(ac, w)))
}

// Cuboid builds a 12-triangle axis-aligned box mesh spanning min..max.
// Used by tests and as a fallback for degenerate imports.
func Cuboid(min, max [3]float64) *Mesh {
	v := [][3]float64{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{max[0], max[1], min[2]},
		{min[0], max[1], min[2]},
		{min[0], min[1], max[2]},
		{max[0], min[1], max[2]},
		{max[0], max[1], max[2]},
		{min[0], max[1], max[2]},
	}
	t := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{3, 0, 4}, {3, 4, 7}, // left
	}
	m, err := New(v, t)
	if err != nil {
		panic(fmt.Sprintf("trimesh.Cuboid: %v", err))
	}
	return m
}
