// Package assembly defines the parts of a multi-body mechanical
// assembly and loads them from CAD exchange files. Parts hold opaque
// geometry handles owned by the kernel backend; contact analysis only
// ever reads from them.
package assembly

import (
	"fmt"
	"sync"

	"github.com/chazu/abut/pkg/kernel"
)

// Part is one solid body of an assembly. The index is stable and
// assigned in load order; it is the row/column index of the part in
// the contact matrix.
type Part struct {
	Index int
	Name  string
	Solid kernel.Solid

	bboxOnce sync.Once
	bboxMin  [3]float64
	bboxMax  [3]float64
}

// Bounds returns the part's axis-aligned bounding box, computed on
// first access and memoized.
func (p *Part) Bounds() (min, max [3]float64) {
	p.bboxOnce.Do(func() {
		p.bboxMin, p.bboxMax = p.Solid.BoundingBox()
	})
	return p.bboxMin, p.bboxMax
}

// Assembly is an ordered collection of parts.
type Assembly struct {
	parts []*Part
}

// New builds an assembly from named solids. Parts are indexed in the
// order given. An empty name is replaced by a generated "Part_i" label.
func New(names []string, solids []kernel.Solid) (*Assembly, error) {
	if len(names) != len(solids) {
		return nil, fmt.Errorf("assembly: %d names for %d solids", len(names), len(solids))
	}
	a := &Assembly{parts: make([]*Part, len(solids))}
	for i, s := range solids {
		name := names[i]
		if name == "" {
			name = fmt.Sprintf("Part_%d", i)
		}
		a.parts[i] = &Part{Index: i, Name: name, Solid: s}
	}
	return a, nil
}

// Len returns the number of parts.
func (a *Assembly) Len() int {
	return len(a.parts)
}

// Parts returns the parts in index order. The returned slice is shared;
// callers must not modify it.
func (a *Assembly) Parts() []*Part {
	return a.parts
}

// Part returns the part at the given index.
func (a *Assembly) Part(i int) *Part {
	return a.parts[i]
}

// Names returns the part display names in index order.
func (a *Assembly) Names() []string {
	names := make([]string, len(a.parts))
	for i, p := range a.parts {
		names[i] = p.Name
	}
	return names
}
