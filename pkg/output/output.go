// Package output organizes result files under a base directory:
// exported matrices under matrices/ and analysis reports under
// reports/, with collision-free file naming.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manager hands out paths for result files and guarantees the
// directories exist.
type Manager struct {
	base string
	now  func() time.Time
}

// NewManager creates the output directory tree rooted at base. An
// empty base means "./outputs".
func NewManager(base string) (*Manager, error) {
	if base == "" {
		base = "outputs"
	}
	m := &Manager{base: base, now: time.Now}
	for _, dir := range []string{base, m.MatricesDir(), m.ReportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("output: create %s: %w", dir, err)
		}
	}
	return m, nil
}

// BaseDir returns the root output directory.
func (m *Manager) BaseDir() string {
	return m.base
}

// MatricesDir returns the directory for exported contact matrices.
func (m *Manager) MatricesDir() string {
	return filepath.Join(m.base, "matrices")
}

// ReportsDir returns the directory for analysis reports.
func (m *Manager) ReportsDir() string {
	return filepath.Join(m.base, "reports")
}

// MatrixPath returns a free path for a matrix CSV named after base.
func (m *Manager) MatrixPath(base string) string {
	return m.uniquePath(m.MatricesDir(), base, ".csv")
}

// ReportPath returns a free path for a JSON report named after base.
func (m *Manager) ReportPath(base string) string {
	return m.uniquePath(m.ReportsDir(), base, ".json")
}

// uniquePath returns dir/base+ext if free, otherwise appends a
// timestamp and, failing that, a counter.
func (m *Manager) uniquePath(dir, base, ext string) string {
	path := filepath.Join(dir, base+ext)
	if !exists(path) {
		return path
	}

	stamp := m.now().Format("20060102_150405")
	path = filepath.Join(dir, fmt.Sprintf("%s_%s%s", base, stamp, ext))
	if !exists(path) {
		return path
	}

	for counter := 1; ; counter++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", base, stamp, counter, ext))
		if !exists(path) {
			return path
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
