package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/chazu/abut/pkg/contact"
	"github.com/chazu/abut/pkg/graph"
)

// Report is the full JSON analysis document: the assembly identity,
// computation stats, the contact pairs by name, and the structural
// analysis of the contact graph.
type Report struct {
	Assembly  string        `json:"assembly,omitempty"`
	Generated time.Time     `json:"generated_at"`
	Tolerance float64       `json:"tolerance"`
	Parts     []string      `json:"parts"`
	Contacts  [][2]string   `json:"contacts"`
	Stats     contact.Stats `json:"stats"`
	Analysis  *graph.Report `json:"analysis"`
}

// NewReport assembles the report document from a computed graph and
// its analysis.
func NewReport(name string, g *graph.Graph, stats contact.Stats, tolerance float64, analysis *graph.Report) *Report {
	parts := make([]string, g.NodeCount())
	for i := range parts {
		parts[i] = g.Label(i)
	}
	contacts := make([][2]string, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		contacts = append(contacts, [2]string{g.Label(e[0]), g.Label(e[1])})
	}
	return &Report{
		Assembly:  name,
		Generated: time.Now().UTC(),
		Tolerance: tolerance,
		Parts:     parts,
		Contacts:  contacts,
		Stats:     stats,
		Analysis:  analysis,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write report: %w", err)
	}
	return nil
}
