// Package measure implements the minimum-distance query between two
// solids. It is the geometric primitive consumed by contact detection:
// MinimumDistance(a, b) -> (distance, done), where done=false reports
// that the iteration did not converge and the result is unreliable.
//
// The query works on distance fields only (kernel.Solid.Evaluate), so
// it is backend-agnostic: SDF solids and triangle meshes both work.
// The method is alternating projection: starting from a seed point,
// repeatedly project onto the surface of one solid, then the other;
// the projected pair converges to a locally closest pair of surface
// points. Multiple seeds guard against bad local minima.
package measure

import (
	"math"

	"github.com/chazu/abut/pkg/kernel"
)

// Defaults for the iteration. Tuned for assemblies in millimeter-scale
// model units; all thresholds scale with the combined bounding box.
const (
	defaultMaxIterations = 64
	projectionSteps      = 32
	relEpsilon           = 1e-9
)

// Measurer computes minimum distances between solids.
// The zero value is not usable; call New.
type Measurer struct {
	maxIter int
}

// New returns a Measurer with default iteration limits.
func New() *Measurer {
	return &Measurer{maxIter: defaultMaxIterations}
}

// MinimumDistance returns the minimum separation between the surfaces
// of a and b. Overlapping or touching solids report 0. The second
// result is false when the iteration failed to converge; callers must
// treat such results as unreliable.
func (m *Measurer) MinimumDistance(a, b kernel.Solid) (float64, bool) {
	scale := combinedScale(a, b)
	eps := relEpsilon*scale + 1e-15

	aMin, aMax := a.BoundingBox()
	bMin, bMax := b.BoundingBox()
	ca := center(aMin, aMax)
	cb := center(bMin, bMax)

	seeds := [][3]float64{
		mid(ca, cb),
		ca,
		cb,
	}

	best := math.Inf(1)
	converged := false

	for _, seed := range seeds {
		d, ok := m.alternate(a, b, seed, scale, eps)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		if d < best {
			best = d
		}
		if ok {
			converged = true
		}
		if converged && best <= eps {
			break // touching or overlapping; no better answer exists
		}
	}

	if math.IsInf(best, 0) {
		return 0, false
	}
	if best < 0 {
		best = 0
	}
	return best, converged
}

// alternate runs one alternating-projection chain from the given seed.
func (m *Measurer) alternate(a, b kernel.Solid, seed [3]float64, scale, eps float64) (float64, bool) {
	pa, ok := project(a, seed, scale, eps)
	if !ok {
		return math.NaN(), false
	}

	// pa lies on a's surface; if it is inside b the solids overlap.
	if b.Evaluate(pa) < -eps {
		return 0, true
	}

	prev := math.Inf(1)
	for i := 0; i < m.maxIter; i++ {
		pb, okB := project(b, pa, scale, eps)
		if !okB {
			return prev, false
		}
		if a.Evaluate(pb) < -eps {
			return 0, true // pb lies inside a: surfaces interpenetrate
		}

		next, okA := project(a, pb, scale, eps)
		if !okA {
			return prev, false
		}

		d := dist(next, pb)
		if math.Abs(d-prev) <= eps {
			return d, true
		}
		prev = d
		pa = next
	}

	return prev, false
}

// project moves p onto the surface of s by gradient descent on the
// distance field. Exact fields converge in one step; approximate
// fields take a few.
func project(s kernel.Solid, p [3]float64, scale, eps float64) ([3]float64, bool) {
	h := 1e-6*scale + 1e-12
	for i := 0; i < projectionSteps; i++ {
		d := s.Evaluate(p)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return p, false
		}
		if math.Abs(d) <= eps {
			return p, true
		}
		g, ok := gradient(s, p, h)
		if !ok {
			return p, false
		}
		p = [3]float64{p[0] - d*g[0], p[1] - d*g[1], p[2] - d*g[2]}
	}
	// Close enough counts: the residual is bounded by the last step.
	if math.Abs(s.Evaluate(p)) <= 1e3*eps {
		return p, true
	}
	return p, false
}

// gradient estimates the normalized gradient of the distance field at p
// by central differences.
func gradient(s kernel.Solid, p [3]float64, h float64) ([3]float64, bool) {
	var g [3]float64
	for i := 0; i < 3; i++ {
		lo, hi := p, p
		lo[i] -= h
		hi[i] += h
		g[i] = (s.Evaluate(hi) - s.Evaluate(lo)) / (2 * h)
	}
	n := math.Sqrt(g[0]*g[0] + g[1]*g[1] + g[2]*g[2])
	if n < 1e-12 || math.IsNaN(n) {
		return g, false // flat spot (e.g. centroid of a symmetric solid)
	}
	return [3]float64{g[0] / n, g[1] / n, g[2] / n}, true
}

func center(min, max [3]float64) [3]float64 {
	return [3]float64{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, (min[2] + max[2]) / 2}
}

func mid(a, b [3]float64) [3]float64 {
	return [3]float64{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2, (a[2] + b[2]) / 2}
}

func dist(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// combinedScale returns the diagonal of the joint bounding box of a and
// b, used to make iteration thresholds unit-independent.
func combinedScale(a, b kernel.Solid) float64 {
	aMin, aMax := a.BoundingBox()
	bMin, bMax := b.BoundingBox()
	var min, max [3]float64
	for i := 0; i < 3; i++ {
		min[i] = math.Min(aMin[i], bMin[i])
		max[i] = math.Max(aMax[i], bMax[i])
	}
	return math.Max(dist(min, max), 1e-9)
}
