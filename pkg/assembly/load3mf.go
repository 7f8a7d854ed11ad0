package assembly

import (
	"fmt"
	"os"

	"github.com/hpinc/go3mf"

	"github.com/chazu/abut/pkg/kernel"
	"github.com/chazu/abut/pkg/kernel/trimesh"
)

// LoadError reports a failure to read or parse an assembly file.
// Load errors are fatal to the requested analysis; they are never
// degraded to an empty assembly.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a 3MF file and returns one part per build item, in build
// order. Item transforms are applied to the mesh vertices so that each
// part's geometry is in assembly coordinates. Object names become part
// display names; unnamed objects get generated "Part_i" labels.
func Load(path string) (*Assembly, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer r.Close()

	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var names []string
	var solids []kernel.Solid

	for _, item := range model.Build.Items {
		obj, ok := model.FindObject(item.ObjectPath(), item.ObjectID)
		if !ok || obj.Mesh == nil {
			continue // component-only or resource-less items carry no solid geometry
		}

		mesh, err := itemMesh(obj, item.Transform)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("object %d: %w", item.ObjectID, err)}
		}
		names = append(names, obj.Name)
		solids = append(solids, mesh)
	}

	if len(solids) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("no solid bodies in build")}
	}

	return New(names, solids)
}

// itemMesh converts a 3MF object mesh into a trimesh solid with the
// build item's transform applied.
func itemMesh(obj *go3mf.Object, m go3mf.Matrix) (*trimesh.Mesh, error) {
	src := obj.Mesh

	verts := make([][3]float64, len(src.Vertices.Vertex))
	for i, v := range src.Vertices.Vertex {
		verts[i] = applyTransform(m, float64(v.X()), float64(v.Y()), float64(v.Z()))
	}

	tris := make([][3]int, len(src.Triangles.Triangle))
	for i, t := range src.Triangles.Triangle {
		tris[i] = [3]int{int(t.V1), int(t.V2), int(t.V3)}
	}

	return trimesh.New(verts, tris)
}

// applyTransform applies a 3MF item transform to a point. go3mf stores
// the 4x4 matrix column-major with the translation in elements 12..14;
// the zero Matrix means identity.
func applyTransform(m go3mf.Matrix, x, y, z float64) [3]float64 {
	if m == (go3mf.Matrix{}) || m == identity() {
		return [3]float64{x, y, z}
	}
	return [3]float64{
		x*float64(m[0]) + y*float64(m[4]) + z*float64(m[8]) + float64(m[12]),
		x*float64(m[1]) + y*float64(m[5]) + z*float64(m[9]) + float64(m[13]),
		x*float64(m[2]) + y*float64(m[6]) + z*float64(m[10]) + float64(m[14]),
	}
}

func identity() go3mf.Matrix {
	return go3mf.Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
