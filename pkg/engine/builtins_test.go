package engine

import (
	"strings"
	"testing"

	"github.com/chazu/abut/pkg/assembly"
	"github.com/chazu/abut/pkg/kernel"
)

// fakeSolid tracks only a bounding box; the scene builtins never
// evaluate distance fields.
type fakeSolid struct {
	min, max [3]float64
}

func (s fakeSolid) BoundingBox() (min, max [3]float64) { return s.min, s.max }
func (s fakeSolid) Evaluate(p [3]float64) float64      { return 0 }

// fakeKernel builds fakeSolids with the same bounding-box conventions
// as the real kernel: box min corner at the origin, cylinder base on
// the z=0 plane, sphere centered at the origin.
type fakeKernel struct{}

func (fakeKernel) Box(x, y, z float64) kernel.Solid {
	return fakeSolid{max: [3]float64{x, y, z}}
}

func (fakeKernel) Cylinder(height, radius float64) kernel.Solid {
	return fakeSolid{
		min: [3]float64{-radius, -radius, 0},
		max: [3]float64{radius, radius, height},
	}
}

func (fakeKernel) Sphere(radius float64) kernel.Solid {
	return fakeSolid{
		min: [3]float64{-radius, -radius, -radius},
		max: [3]float64{radius, radius, radius},
	}
}

func (fakeKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	min, max := s.BoundingBox()
	return fakeSolid{
		min: [3]float64{min[0] + x, min[1] + y, min[2] + z},
		max: [3]float64{max[0] + x, max[1] + y, max[2] + z},
	}
}

func (fakeKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	// Rotation is opaque to these tests.
	return s
}

var _ kernel.Kernel = fakeKernel{}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(cylinder :height 50 :radius 5)`,
			expect: `(cylinder "__kw_height" 50 "__kw_radius" 5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(defpart "p" front-panel)`,
			expect: `(defpart "p" front_panel)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:mount-offset`,
			expect: `"__kw_mount-offset"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Scene DSL tests
// ---------------------------------------------------------------------------

// eval runs source and fails the test on any error.
func eval(t *testing.T, source string) *assembly.Assembly {
	t.Helper()
	asm, evalErrs, err := NewEngine(fakeKernel{}).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return asm
}

// evalExpectError runs source and fails the test unless evaluation
// produced at least one eval error mentioning want.
func evalExpectError(t *testing.T, source, want string) {
	t.Helper()
	asm, evalErrs, err := NewEngine(fakeKernel{}).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if asm != nil {
		t.Fatal("expected nil assembly on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval errors")
	}
	found := false
	for _, e := range evalErrs {
		if strings.Contains(e.Message, want) {
			found = true
		}
	}
	if !found {
		t.Errorf("no eval error mentions %q: %v", want, evalErrs)
	}
}

func TestDefpartBox(t *testing.T) {
	asm := eval(t, `(defpart "base" (box 40 20 10))`)
	if asm.Len() != 1 {
		t.Fatalf("Len = %d, want 1", asm.Len())
	}
	p := asm.Part(0)
	if p.Name != "base" {
		t.Errorf("Name = %q, want base", p.Name)
	}
	min, max := p.Bounds()
	if min != [3]float64{0, 0, 0} || max != [3]float64{40, 20, 10} {
		t.Errorf("Bounds = %v..%v, want origin..40x20x10", min, max)
	}
}

func TestDefpartCylinderAndSphere(t *testing.T) {
	asm := eval(t, `
(defpart "shaft" (cylinder :height 50 :radius 5))
(defpart "ball" (sphere 12.5))
`)
	if asm.Len() != 2 {
		t.Fatalf("Len = %d, want 2", asm.Len())
	}

	min, max := asm.Part(0).Bounds()
	if min != [3]float64{-5, -5, 0} || max != [3]float64{5, 5, 50} {
		t.Errorf("shaft bounds = %v..%v", min, max)
	}
	min, max = asm.Part(1).Bounds()
	if min != [3]float64{-12.5, -12.5, -12.5} || max != [3]float64{12.5, 12.5, 12.5} {
		t.Errorf("ball bounds = %v..%v", min, max)
	}
}

func TestPlaceTranslatesPart(t *testing.T) {
	asm := eval(t, `
(defpart "base" (box 10 10 10))
(place (part "base") :at (vec3 100 0 -5))
`)
	min, max := asm.Part(0).Bounds()
	if min != [3]float64{100, 0, -5} || max != [3]float64{110, 10, 5} {
		t.Errorf("placed bounds = %v..%v, want shifted by (100,0,-5)", min, max)
	}
}

func TestTranslateInDefpart(t *testing.T) {
	asm := eval(t, `(defpart "lid" (translate (box 10 10 2) 0 0 20))`)
	min, _ := asm.Part(0).Bounds()
	if min[2] != 20 {
		t.Errorf("min z = %g, want 20", min[2])
	}
}

func TestDefinitionOrderIsPartOrder(t *testing.T) {
	asm := eval(t, `
(defpart "frame" (box 100 100 10))
(defpart "motor" (box 30 30 30))
(defpart "gearbox" (box 20 20 20))
`)
	want := []string{"frame", "motor", "gearbox"}
	names := asm.Names()
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestDuplicatePartName(t *testing.T) {
	evalExpectError(t, `
(defpart "base" (box 1 1 1))
(defpart "base" (box 2 2 2))
`, "already defined")
}

func TestPlaceUnknownPart(t *testing.T) {
	evalExpectError(t, `(place (part "ghost") :at (vec3 0 0 0))`, "no part named")
}

func TestBoxRejectsNonPositiveDimension(t *testing.T) {
	evalExpectError(t, `(defpart "bad" (box 10 0 10))`, "must be positive")
}

func TestCylinderRequiresKeywords(t *testing.T) {
	evalExpectError(t, `(defpart "bad" (cylinder :height 10))`, "radius")
}

func TestVec3Arity(t *testing.T) {
	evalExpectError(t, `(vec3 1 2)`, "exactly 3")
}

func TestDefpartRequiresSolid(t *testing.T) {
	evalExpectError(t, `(defpart "bad" 42)`, "expected solid")
}

func TestCommentsOnly(t *testing.T) {
	asm := eval(t, `
;; a scene with nothing in it
; not even one part
`)
	if asm.Len() != 0 {
		t.Errorf("Len = %d, want 0 for comments-only source", asm.Len())
	}
}

func TestArithmeticInDimensions(t *testing.T) {
	asm := eval(t, `
(def w 10)
(defpart "sized" (box w (* 2 5) (/ 20 2)))
`)
	_, max := asm.Part(0).Bounds()
	if max != [3]float64{10, 10, 10} {
		t.Errorf("max = %v, want (10,10,10) from arithmetic dimensions", max)
	}
}

func TestFloatingPointDimensions(t *testing.T) {
	asm := eval(t, `(defpart "thin" (box 0.5 19.05 3.175))`)
	_, max := asm.Part(0).Bounds()
	if max != [3]float64{0.5, 19.05, 3.175} {
		t.Errorf("max = %v, want fractional dimensions preserved", max)
	}
}

func TestRapidAlternatingEvaluation(t *testing.T) {
	eng := NewEngine(fakeKernel{})
	a := `(defpart "one" (box 1 1 1))`
	b := `(defpart "one" (box 1 1 1)) (defpart "two" (box 2 2 2))`

	for i := 0; i < 10; i++ {
		src, want := a, 1
		if i%2 == 1 {
			src, want = b, 2
		}
		asm, evalErrs, err := eng.Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("iteration %d: %v %v", i, err, evalErrs)
		}
		if asm.Len() != want {
			t.Errorf("iteration %d: Len = %d, want %d", i, asm.Len(), want)
		}
	}
}
