package contact

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/abut/pkg/assembly"
)

// minRectLength pads degenerate (flat or empty) bounding boxes so they
// remain representable in the R-tree. A flat part still occupies its
// plane; the padding is far below any meaningful contact tolerance.
const minRectLength = 1e-12

// Index answers conservative bounding-box queries used to prune
// contact pairs. It caches each part's axis-aligned box on
// construction and keeps an R-tree over them for candidate lookup.
//
// Both queries are pure pre-filters: they may over-admit pairs that
// are not in contact, but never reject a pair that is.
type Index struct {
	parts []*assembly.Part
	tree  *rtreego.Rtree
}

// bboxEntry adapts a part to the rtreego.Spatial interface.
type bboxEntry struct {
	part *assembly.Part
	rect rtreego.Rect
}

func (e *bboxEntry) Bounds() rtreego.Rect {
	return e.rect
}

// NewIndex builds the bounding-box index for the given parts.
func NewIndex(parts []*assembly.Part) *Index {
	ix := &Index{
		parts: parts,
		tree:  rtreego.NewTree(3, 2, 8),
	}
	for _, p := range parts {
		ix.tree.Insert(&bboxEntry{part: p, rect: partRect(p, 0)})
	}
	return ix
}

// partRect converts a part's bounding box, expanded by margin on every
// side, into an rtreego rectangle.
func partRect(p *assembly.Part, margin float64) rtreego.Rect {
	min, max := p.Bounds()
	point := rtreego.Point{min[0] - margin, min[1] - margin, min[2] - margin}
	lengths := make([]float64, 3)
	for i := 0; i < 3; i++ {
		lengths[i] = max[i] - min[i] + 2*margin
		if lengths[i] < minRectLength {
			lengths[i] = minRectLength
		}
	}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		// Lengths are clamped positive above; NewRect cannot fail.
		panic("contact: invalid bounding rect: " + err.Error())
	}
	return rect
}

// Overlap reports whether the boxes of parts i and j, each expanded
// outward by margin, intersect on all three axes. Touching boxes count
// as overlapping.
func (ix *Index) Overlap(i, j int, margin float64) bool {
	aMin, aMax := ix.parts[i].Bounds()
	bMin, bMax := ix.parts[j].Bounds()
	for axis := 0; axis < 3; axis++ {
		if aMin[axis]-margin > bMax[axis]+margin {
			return false
		}
		if bMin[axis]-margin > aMax[axis]+margin {
			return false
		}
	}
	return true
}

// Candidates returns the indices of parts whose margin-expanded boxes
// overlap part i's margin-expanded box, found via the R-tree. The
// result excludes i itself and is sorted ascending.
func (ix *Index) Candidates(i int, margin float64) []int {
	// The tree stores unexpanded boxes; expanding the query by twice
	// the margin is equivalent to expanding both boxes by it.
	query := partRect(ix.parts[i], 2*margin)

	var out []int
	for _, hit := range ix.tree.SearchIntersect(query) {
		p := hit.(*bboxEntry).part
		if p.Index != i {
			out = append(out, p.Index)
		}
	}
	sort.Ints(out)
	return out
}

// candidateMask precomputes the pairwise candidate relation for all
// parts. Row i marks every j admitted by the bounding-box filter.
func (ix *Index) candidateMask(margin float64) [][]bool {
	n := len(ix.parts)
	mask := make([][]bool, n)
	for i := 0; i < n; i++ {
		mask[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for _, j := range ix.Candidates(i, margin) {
			mask[i][j] = true
			mask[j][i] = true
		}
	}
	return mask
}
