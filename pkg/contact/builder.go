package contact

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chazu/abut/pkg/assembly"
)

// Options configures a matrix computation.
type Options struct {
	// Tolerance is the maximum separation (in model units) at which
	// two parts count as touching. Must be >= 0; 0 means only
	// coincident contact counts.
	Tolerance float64

	// BBoxFilter enables the bounding-box pre-filter. It changes which
	// pairs get a precise distance query, never the resulting matrix.
	BBoxFilter bool

	// Parallel distributes pair evaluation across a worker pool.
	// Results are identical to the sequential mode.
	Parallel  bool
	Workers   int // <= 0 means GOMAXPROCS
	BatchSize int // pairs per work unit; <= 0 means defaultBatchSize
}

const defaultBatchSize = 100

// Stats summarizes one matrix computation.
type Stats struct {
	Parts         int `json:"parts"`          // number of parts
	Pairs         int `json:"pairs"`          // unordered pairs enumerated
	Pruned        int `json:"pruned"`         // pairs skipped by the bounding-box filter
	DistanceCalls int `json:"distance_calls"` // precise distance queries issued
	Failures      int `json:"failures"`       // queries that did not converge (treated as no contact)
	Contacts      int `json:"contacts"`       // pairs found in contact
}

// Builder computes contact matrices for assemblies.
type Builder struct {
	src  DistanceSource
	opts Options
	log  *zap.Logger
}

// NewBuilder returns a builder over the given distance source. A nil
// logger disables log output.
func NewBuilder(src DistanceSource, opts Options, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{src: src, opts: opts, log: log}
}

// Compute evaluates every unordered pair of parts and returns the
// symmetric contact matrix with unit diagonal, plus computation stats.
// The result is independent of evaluation order; sequential and
// parallel modes produce bitwise-identical matrices.
func (b *Builder) Compute(parts []*assembly.Part) (*Matrix, Stats) {
	n := len(parts)
	m := NewMatrix(n)
	stats := Stats{Parts: n, Pairs: n * (n - 1) / 2}

	b.log.Info("computing contact matrix",
		zap.Int("parts", n),
		zap.Float64("tolerance", b.opts.Tolerance),
		zap.Bool("bbox_filter", b.opts.BBoxFilter),
		zap.Bool("parallel", b.opts.Parallel),
	)

	if n == 0 {
		return m, stats
	}

	det := NewDetector(b.src, b.opts.Tolerance, b.log)

	// The candidate mask is computed up front so workers never touch
	// the R-tree concurrently.
	var mask [][]bool
	if b.opts.BBoxFilter {
		mask = NewIndex(parts).candidateMask(b.opts.Tolerance)
	}

	var pruned, calls, contacts atomic.Int64

	evalPair := func(i, j int) {
		if mask != nil && !mask[i][j] {
			pruned.Add(1)
			return // cell stays 0: boxes cannot touch, so the parts cannot
		}
		calls.Add(1)
		if det.InContact(parts[i], parts[j]) {
			m.set(i, j, 1)
			contacts.Add(1)
		}
	}

	if b.opts.Parallel && n > 2 {
		b.computeParallel(n, evalPair)
	} else {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				evalPair(i, j)
			}
		}
	}

	m.fillDiagonal()

	stats.Pruned = int(pruned.Load())
	stats.DistanceCalls = int(calls.Load())
	stats.Contacts = int(contacts.Load())
	stats.Failures = int(det.Failures())

	b.log.Info("contact matrix complete",
		zap.Int("contacts", stats.Contacts),
		zap.Int("pruned", stats.Pruned),
		zap.Int("distance_calls", stats.DistanceCalls),
		zap.Int("failed_queries", stats.Failures),
	)
	return m, stats
}

// computeParallel fans pair batches out to a fixed worker pool. Each
// worker owns disjoint pairs and therefore disjoint matrix cells; the
// WaitGroup join is the only synchronization point before the matrix
// is finalized.
func (b *Builder) computeParallel(n int, evalPair func(i, j int)) {
	workers := b.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batchSize := b.opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	batches := make(chan [][2]int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				for _, pair := range batch {
					evalPair(pair[0], pair[1])
				}
			}
		}()
	}

	batch := make([][2]int, 0, batchSize)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			batch = append(batch, [2]int{i, j})
			if len(batch) == batchSize {
				batches <- batch
				batch = make([][2]int, 0, batchSize)
			}
		}
	}
	if len(batch) > 0 {
		batches <- batch
	}
	close(batches)
	wg.Wait()
}
