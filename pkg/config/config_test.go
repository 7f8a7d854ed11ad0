package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Default(t *testing.T) {
	warnings := Default().Validate()
	if len(warnings) != 0 {
		t.Errorf("default config should have no warnings, got %v", warnings)
	}
}

func TestValidate_NegativeTolerance(t *testing.T) {
	cfg := Default()
	cfg.Contact.Tolerance = -1e-3
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "tolerance") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about negative tolerance")
	}
}

func TestValidate_BadDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		delim string
		want  bool // true = should warn
	}{
		{"comma", ",", false},
		{"semicolon", ";", false},
		{"empty", "", true},
		{"multi", ",,", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Output.CSVDelimiter = tt.delim
			hasWarn := false
			for _, w := range cfg.Validate() {
				if strings.Contains(w, "csv_delimiter") {
					hasWarn = true
				}
			}
			if hasWarn != tt.want {
				t.Errorf("delimiter=%q: hasWarn=%v, want=%v", tt.delim, hasWarn, tt.want)
			}
		})
	}
}

func TestValidate_UnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	found := false
	for _, w := range cfg.Validate() {
		if strings.Contains(w, "log level") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about unknown log level")
	}
}

func TestDelimiterFallback(t *testing.T) {
	cfg := Default()
	if cfg.Delimiter() != ',' {
		t.Errorf("Delimiter = %q, want comma", cfg.Delimiter())
	}
	cfg.Output.CSVDelimiter = ";"
	if cfg.Delimiter() != ';' {
		t.Errorf("Delimiter = %q, want semicolon", cfg.Delimiter())
	}
	cfg.Output.CSVDelimiter = ""
	if cfg.Delimiter() != ',' {
		t.Error("unusable delimiter should fall back to comma")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Contact.Tolerance != 1e-3 {
		t.Errorf("tolerance = %g, want 1e-3", cfg.Contact.Tolerance)
	}
	if !cfg.Contact.BBoxFilter {
		t.Error("bbox_filter should default to true")
	}
	if cfg.Parallel.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Parallel.Workers)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abut.yaml")
	content := `contact:
  tolerance: 0.01
  bbox_filter: false
parallel:
  enabled: true
  workers: 8
output:
  csv_delimiter: ";"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Contact.Tolerance != 0.01 {
		t.Errorf("tolerance = %g, want 0.01", cfg.Contact.Tolerance)
	}
	if cfg.Contact.BBoxFilter {
		t.Error("bbox_filter should be overridden to false")
	}
	if !cfg.Parallel.Enabled || cfg.Parallel.Workers != 8 {
		t.Errorf("parallel = %+v, want enabled with 8 workers", cfg.Parallel)
	}
	if cfg.Delimiter() != ';' {
		t.Errorf("Delimiter = %q, want semicolon", cfg.Delimiter())
	}
	// Unset keys keep their defaults.
	if cfg.Analysis.MaxDetailedParts != 50 {
		t.Errorf("max_detailed_parts = %d, want default 50", cfg.Analysis.MaxDetailedParts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
