package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/abut/pkg/graph"
)

// WriteSummary writes a human-readable summary of the analysis: part
// and contact counts, density, per-part connections, and, when the
// optional passes ran, components and bridges.
func WriteSummary(w io.Writer, g *graph.Graph, r *graph.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Contact Analysis Summary ===\n")
	fmt.Fprintf(&b, "Parts:    %d\n", r.Parts)
	fmt.Fprintf(&b, "Contacts: %d\n", r.Edges)
	fmt.Fprintf(&b, "Density:  %.2f%%\n", r.Density*100)

	if r.Parts > 0 {
		fmt.Fprintf(&b, "\nPart connections:\n")
		for i := 0; i < g.NodeCount(); i++ {
			names := make([]string, 0, g.Degree(i))
			for _, j := range g.Neighbors(i) {
				names = append(names, g.Label(j))
			}
			fmt.Fprintf(&b, "  %s: %d -> %s\n", g.Label(i), g.Degree(i), strings.Join(names, ", "))
		}
	}

	if len(r.Components) > 1 {
		fmt.Fprintf(&b, "\nComponents: %d\n", len(r.Components))
		for _, comp := range r.Components {
			names := make([]string, len(comp))
			for k, i := range comp {
				names[k] = g.Label(i)
			}
			fmt.Fprintf(&b, "  [%s]\n", strings.Join(names, ", "))
		}
	}

	if r.Bridges != nil {
		fmt.Fprintf(&b, "\nBridges: %d\n", len(r.Bridges))
		for _, e := range r.Bridges {
			fmt.Fprintf(&b, "  %s -- %s\n", g.Label(e[0]), g.Label(e[1]))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
