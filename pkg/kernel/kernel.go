// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, trimesh) represent solids as distance fields
// behind this interface. The abstraction keeps contact analysis
// independent of the geometry backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Solids are immutable: transforms return new solids and contact
// analysis only ever reads from them.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)

	// Evaluate returns the distance from p to the solid's surface.
	// Signed backends return negative values inside the solid;
	// unsigned backends (triangle meshes) return the distance to the
	// nearest surface point everywhere. Both satisfy the contract of
	// the minimum-distance query in pkg/measure.
	Evaluate(p [3]float64) float64
}

// Kernel constructs and transforms solids.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
}
