// Package graph provides the contact graph view of a contact matrix
// and the structural analyses over it: degree and density, centrality
// measures, bridge detection, and connected components.
package graph

import (
	"fmt"

	"github.com/chazu/abut/pkg/contact"
)

// DimensionError reports a mismatch between the number of part names
// and the matrix dimension.
type DimensionError struct {
	Names int
	Size  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("graph: %d names for a %dx%d matrix", e.Names, e.Size, e.Size)
}

// Graph is the undirected contact graph: one node per part index, an
// edge (i,j) for every off-diagonal matrix entry equal to 1. Graphs
// are derived from a matrix and never independently mutated.
type Graph struct {
	labels []string
	adj    [][]int
	edges  int
}

// FromMatrix derives a graph from a contact matrix. names labels the
// nodes in index order; pass nil to generate "Part_i" labels. Supplying
// the wrong number of names is a *DimensionError.
func FromMatrix(m *contact.Matrix, names []string) (*Graph, error) {
	n := m.Size()
	if names != nil && len(names) != n {
		return nil, &DimensionError{Names: len(names), Size: n}
	}

	g := &Graph{
		labels: make([]string, n),
		adj:    make([][]int, n),
	}
	for i := 0; i < n; i++ {
		if names != nil {
			g.labels[i] = names[i]
		} else {
			g.labels[i] = fmt.Sprintf("Part_%d", i)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && m.At(i, j) == 1 {
				g.adj[i] = append(g.adj[i], j)
			}
		}
	}
	for i := 0; i < n; i++ {
		for _, j := range g.adj[i] {
			if i < j {
				g.edges++
			}
		}
	}
	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Label returns the display name of node i.
func (g *Graph) Label(i int) string {
	return g.labels[i]
}

// Degree returns the number of edges incident to node i.
func (g *Graph) Degree(i int) int {
	return len(g.adj[i])
}

// Neighbors returns the neighbor indices of node i, ascending. The
// returned slice is shared; callers must not modify it.
func (g *Graph) Neighbors(i int) []int {
	return g.adj[i]
}

// Edges returns every undirected edge as an (i,j) pair with i < j,
// ordered by i then j.
func (g *Graph) Edges() [][2]int {
	out := make([][2]int, 0, g.edges)
	for i := range g.adj {
		for _, j := range g.adj[i] {
			if i < j {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// Density returns edges / maximum possible edges, or 0 for graphs with
// fewer than two nodes.
func (g *Graph) Density() float64 {
	n := g.NodeCount()
	if n <= 1 {
		return 0
	}
	return float64(g.edges) / float64(n*(n-1)/2)
}
