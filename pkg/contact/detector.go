package contact

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chazu/abut/pkg/assembly"
	"github.com/chazu/abut/pkg/kernel"
)

// DistanceSource is the geometric minimum-distance primitive consumed
// by contact detection. done=false reports that the query did not
// converge and the distance is unreliable.
type DistanceSource interface {
	MinimumDistance(a, b kernel.Solid) (dist float64, done bool)
}

// Detector decides whether two parts are in contact: their minimum
// separation is less than or equal to the tolerance (inclusive, so
// touching exactly at tolerance counts).
//
// A failed distance query is recovered locally as "not in contact" and
// counted; a single bad pair never aborts the matrix computation.
type Detector struct {
	src       DistanceSource
	tolerance float64
	log       *zap.Logger
	failures  atomic.Int64
}

// NewDetector returns a detector with the given tolerance. A nil
// logger disables warning output.
func NewDetector(src DistanceSource, tolerance float64, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{src: src, tolerance: tolerance, log: log}
}

// InContact reports whether parts a and b touch. Safe for concurrent
// use: the detector only reads the parts' solids.
func (d *Detector) InContact(a, b *assembly.Part) bool {
	dist, done := d.src.MinimumDistance(a.Solid, b.Solid)
	if !done {
		d.failures.Add(1)
		d.log.Warn("distance query did not converge; treating pair as not in contact",
			zap.String("part_a", a.Name),
			zap.String("part_b", b.Name),
		)
		return false
	}
	return dist <= d.tolerance
}

// Failures returns the number of distance queries that did not
// converge since the detector was created.
func (d *Detector) Failures() int64 {
	return d.failures.Load()
}
