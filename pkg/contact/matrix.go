// Package contact computes which parts of an assembly touch one
// another: a symmetric binary contact matrix built from pairwise
// minimum-distance queries, with an optional bounding-box pre-filter
// and an optional parallel evaluation mode.
package contact

import "fmt"

// Matrix is the n x n symmetric contact matrix over part indices.
// M[i][j] == 1 means parts i and j are in contact; the diagonal is
// always 1 (self-contact). Entries are fixed once the builder returns
// the matrix; recomputation produces a new matrix.
type Matrix struct {
	n     int
	cells []uint8
}

// NewMatrix returns a zero-filled n x n matrix. Only the builder and
// importers populate it.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, cells: make([]uint8, n*n)}
}

// FromRows builds a matrix from explicit 0/1 rows, validating the
// contact-matrix invariants: square shape, symmetry, unit diagonal.
// Used by the CSV importer and by tests.
func FromRows(rows [][]int) (*Matrix, error) {
	n := len(rows)
	m := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("contact: row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("contact: entry (%d,%d) = %d, want 0 or 1", i, j, v)
			}
			m.cells[i*n+j] = uint8(v)
		}
	}
	for i := 0; i < n; i++ {
		if m.At(i, i) != 1 {
			return nil, fmt.Errorf("contact: diagonal entry (%d,%d) is not 1", i, i)
		}
		for j := i + 1; j < n; j++ {
			if m.At(i, j) != m.At(j, i) {
				return nil, fmt.Errorf("contact: matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return m, nil
}

// Size returns the dimension n.
func (m *Matrix) Size() int {
	return m.n
}

// At returns the entry at (i, j) as 0 or 1.
func (m *Matrix) At(i, j int) int {
	return int(m.cells[i*m.n+j])
}

// set writes both symmetric cells for an unordered pair. Each pair is
// owned by exactly one writer during construction, so no locking is
// needed.
func (m *Matrix) set(i, j int, v uint8) {
	m.cells[i*m.n+j] = v
	m.cells[j*m.n+i] = v
}

// fillDiagonal sets every diagonal entry to 1. Called once, after all
// pairs have been evaluated.
func (m *Matrix) fillDiagonal() {
	for i := 0; i < m.n; i++ {
		m.cells[i*m.n+i] = 1
	}
}

// Edges returns the number of contacts, i.e. entries above the
// diagonal that are 1.
func (m *Matrix) Edges() int {
	count := 0
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			count += m.At(i, j)
		}
	}
	return count
}

// Equal reports whether two matrices have identical size and entries.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.n != other.n {
		return false
	}
	for i, c := range m.cells {
		if c != other.cells[i] {
			return false
		}
	}
	return true
}
