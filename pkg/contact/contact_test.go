package contact

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/chazu/abut/pkg/assembly"
	"github.com/chazu/abut/pkg/kernel"
	"github.com/chazu/abut/pkg/kernel/trimesh"
)

// boxSource computes distances straight from bounding-box gaps. All
// test parts are axis-aligned cuboids, so the box gap is the true
// minimum distance. Pairs can be forced to fail for failure-path tests.
type boxSource struct {
	fail  map[[2]kernel.Solid]bool
	calls atomic.Int64
}

func newBoxSource() *boxSource {
	return &boxSource{fail: make(map[[2]kernel.Solid]bool)}
}

func (s *boxSource) MinimumDistance(a, b kernel.Solid) (float64, bool) {
	s.calls.Add(1)
	if s.fail[[2]kernel.Solid{a, b}] {
		return 0, false
	}
	aMin, aMax := a.BoundingBox()
	bMin, bMax := b.BoundingBox()
	sum := 0.0
	for i := 0; i < 3; i++ {
		gap := math.Max(aMin[i]-bMax[i], bMin[i]-aMax[i])
		if gap > 0 {
			sum += gap * gap
		}
	}
	return math.Sqrt(sum), true
}

func (s *boxSource) failPair(a, b kernel.Solid) {
	s.fail[[2]kernel.Solid{a, b}] = true
	s.fail[[2]kernel.Solid{b, a}] = true
}

// cuboidParts builds one unit-cube part per origin.
func cuboidParts(t *testing.T, origins ...[3]float64) []*assembly.Part {
	t.Helper()
	names := make([]string, len(origins))
	solids := make([]kernel.Solid, len(origins))
	for i, o := range origins {
		solids[i] = trimesh.Cuboid(o, [3]float64{o[0] + 1, o[1] + 1, o[2] + 1})
	}
	a, err := assembly.New(names, solids)
	if err != nil {
		t.Fatalf("assembly.New failed: %v", err)
	}
	return a.Parts()
}

func TestChainAssembly(t *testing.T) {
	// Part 0 touches part 1 (gap 0.0005), part 1 touches part 2
	// (gap 0.0008), parts 0 and 2 are far apart.
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1.0005, 0, 0},
		[3]float64{2.0013, 0, 0},
	)

	b := NewBuilder(newBoxSource(), Options{Tolerance: 1e-3}, nil)
	m, stats := b.Compute(parts)

	want := [][]int{
		{1, 1, 0},
		{1, 1, 1},
		{0, 1, 1},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if m.At(i, j) != want[i][j] {
				t.Errorf("At(%d,%d) = %d, want %d", i, j, m.At(i, j), want[i][j])
			}
		}
	}
	if m.Edges() != 2 {
		t.Errorf("Edges = %d, want 2", m.Edges())
	}
	if stats.Contacts != 2 {
		t.Errorf("stats.Contacts = %d, want 2", stats.Contacts)
	}
	if stats.Pairs != 3 {
		t.Errorf("stats.Pairs = %d, want 3", stats.Pairs)
	}
}

func TestEmptyAssembly(t *testing.T) {
	b := NewBuilder(newBoxSource(), Options{Tolerance: 1e-3}, nil)
	m, stats := b.Compute(nil)
	if m.Size() != 0 {
		t.Errorf("Size = %d, want 0", m.Size())
	}
	if stats.Pairs != 0 || stats.DistanceCalls != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestSinglePart(t *testing.T) {
	parts := cuboidParts(t, [3]float64{0, 0, 0})
	b := NewBuilder(newBoxSource(), Options{Tolerance: 1e-3}, nil)
	m, _ := b.Compute(parts)
	if m.Size() != 1 {
		t.Fatalf("Size = %d, want 1", m.Size())
	}
	if m.At(0, 0) != 1 {
		t.Errorf("At(0,0) = %d, want 1 (self-contact)", m.At(0, 0))
	}
	if m.Edges() != 0 {
		t.Errorf("Edges = %d, want 0", m.Edges())
	}
}

func TestMatrixSymmetricWithUnitDiagonal(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1, 0, 0},
		[3]float64{5, 5, 5},
		[3]float64{1, 1, 0},
		[3]float64{0, 1, 1},
	)
	b := NewBuilder(newBoxSource(), Options{Tolerance: 1e-3}, nil)
	m, _ := b.Compute(parts)

	for i := 0; i < m.Size(); i++ {
		if m.At(i, i) != 1 {
			t.Errorf("diagonal At(%d,%d) = %d, want 1", i, i, m.At(i, i))
		}
		for j := 0; j < m.Size(); j++ {
			if m.At(i, j) != m.At(j, i) {
				t.Errorf("asymmetry at (%d,%d)", i, j)
			}
		}
	}
}

func TestToleranceIsInclusive(t *testing.T) {
	// Exact gap of 0.001 with tolerance 0.001: touching at tolerance
	// counts as contact.
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1.001, 0, 0},
	)
	b := NewBuilder(newBoxSource(), Options{Tolerance: 0.001}, nil)
	m, _ := b.Compute(parts)
	if m.At(0, 1) != 1 {
		t.Error("gap equal to tolerance should count as contact")
	}
}

func TestZeroToleranceRequiresCoincidence(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1, 0, 0}, // exactly touching
		[3]float64{2.5, 0, 0},
	)
	b := NewBuilder(newBoxSource(), Options{Tolerance: 0}, nil)
	m, _ := b.Compute(parts)
	if m.At(0, 1) != 1 {
		t.Error("coincident surfaces should be in contact at tolerance 0")
	}
	if m.At(1, 2) != 0 {
		t.Error("separated parts must not be in contact at tolerance 0")
	}
}

func TestFailedQueryIsNoContact(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1, 0, 0},
		[3]float64{2, 0, 0},
	)
	src := newBoxSource()
	src.failPair(parts[0].Solid, parts[1].Solid)

	b := NewBuilder(src, Options{Tolerance: 1e-3}, nil)
	m, stats := b.Compute(parts)

	if m.At(0, 1) != 0 {
		t.Error("failed pair should be treated as not in contact")
	}
	if m.At(1, 2) != 1 {
		t.Error("other pairs must be unaffected by one failed query")
	}
	if stats.Failures != 1 {
		t.Errorf("stats.Failures = %d, want 1", stats.Failures)
	}
}

func TestBBoxFilterPreservesResult(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1.0005, 0, 0},
		[3]float64{10, 0, 0},
		[3]float64{0, 10, 0},
		[3]float64{1.0005, 10, 0},
		[3]float64{20, 20, 20},
	)

	plain := newBoxSource()
	unfiltered, _ := NewBuilder(plain, Options{Tolerance: 1e-3}, nil).Compute(parts)

	filteredSrc := newBoxSource()
	filtered, stats := NewBuilder(filteredSrc, Options{Tolerance: 1e-3, BBoxFilter: true}, nil).Compute(parts)

	if !unfiltered.Equal(filtered) {
		t.Fatal("bounding-box filter changed the matrix")
	}
	if stats.Pruned == 0 {
		t.Error("filter pruned no pairs in a sparse assembly")
	}
	if filteredSrc.calls.Load() >= plain.calls.Load() {
		t.Errorf("filter did not reduce distance calls: %d >= %d",
			filteredSrc.calls.Load(), plain.calls.Load())
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var origins [][3]float64
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			// Touching in x, gapped in y.
			origins = append(origins, [3]float64{float64(x), float64(y) * 1.5, 0})
		}
	}
	parts := cuboidParts(t, origins...)

	seq, seqStats := NewBuilder(newBoxSource(), Options{Tolerance: 1e-3}, nil).Compute(parts)
	par, parStats := NewBuilder(newBoxSource(), Options{
		Tolerance: 1e-3,
		Parallel:  true,
		Workers:   4,
		BatchSize: 5,
	}, nil).Compute(parts)

	if !seq.Equal(par) {
		t.Fatal("parallel mode produced a different matrix")
	}
	if seqStats.Contacts != parStats.Contacts {
		t.Errorf("contact counts differ: %d vs %d", seqStats.Contacts, parStats.Contacts)
	}
}

func TestIndexOverlap(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1, 0, 0},   // touching
		[3]float64{2.5, 0, 0}, // gap 0.5 from part 1
	)
	ix := NewIndex(parts)

	if !ix.Overlap(0, 1, 0) {
		t.Error("touching boxes must overlap at margin 0")
	}
	if ix.Overlap(1, 2, 0) {
		t.Error("separated boxes must not overlap at margin 0")
	}
	if !ix.Overlap(1, 2, 0.25) {
		t.Error("margin expansion should close a 0.5 gap at margin 0.25")
	}
}

func TestIndexCandidatesSupersetOfOverlap(t *testing.T) {
	parts := cuboidParts(t,
		[3]float64{0, 0, 0},
		[3]float64{1.0005, 0, 0},
		[3]float64{5, 0, 0},
		[3]float64{0, 1.0005, 0},
	)
	ix := NewIndex(parts)
	const margin = 1e-3

	for i := range parts {
		cand := make(map[int]bool)
		for _, j := range ix.Candidates(i, margin) {
			cand[j] = true
		}
		for j := range parts {
			if j == i {
				continue
			}
			if ix.Overlap(i, j, margin) && !cand[j] {
				t.Errorf("part %d overlaps %d but is missing from candidates", i, j)
			}
		}
	}
}
