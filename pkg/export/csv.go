// Package export serializes contact matrices and analysis results:
// CSV matrices, JSON reports, and plain-text summaries.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/abut/pkg/contact"
)

// WriteMatrixCSV writes a contact matrix with a header row of part
// names. The first cell of the header is blank and each data row
// starts with its part name, so the file round-trips through
// ReadMatrixCSV. delim 0 means comma.
func WriteMatrixCSV(w io.Writer, m *contact.Matrix, names []string, delim rune) error {
	n := m.Size()
	if len(names) != n {
		return fmt.Errorf("export: %d names for a %dx%d matrix", len(names), n, n)
	}

	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}

	header := make([]string, n+1)
	copy(header[1:], names)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	row := make([]string, n+1)
	for i := 0; i < n; i++ {
		row[0] = names[i]
		for j := 0; j < n; j++ {
			row[j+1] = strconv.Itoa(m.At(i, j))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMatrixCSV reads a matrix written by WriteMatrixCSV, returning
// the matrix and the part names from the header. The matrix invariants
// (square, symmetric, unit diagonal, binary entries) are validated.
func ReadMatrixCSV(r io.Reader, delim rune) (*contact.Matrix, []string, error) {
	cr := csv.NewReader(r)
	if delim != 0 {
		cr.Comma = delim
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("export: read matrix: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("export: empty matrix file")
	}

	names := records[0][1:]
	n := len(names)
	if len(records)-1 != n {
		return nil, nil, fmt.Errorf("export: %d names but %d matrix rows", n, len(records)-1)
	}

	rows := make([][]int, n)
	for i, rec := range records[1:] {
		if len(rec) != n+1 {
			return nil, nil, fmt.Errorf("export: row %d has %d cells, want %d", i, len(rec), n+1)
		}
		rows[i] = make([]int, n)
		for j, cell := range rec[1:] {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, nil, fmt.Errorf("export: cell (%d,%d) %q: %w", i, j, cell, err)
			}
			rows[i][j] = v
		}
	}

	m, err := contact.FromRows(rows)
	if err != nil {
		return nil, nil, err
	}
	return m, names, nil
}
