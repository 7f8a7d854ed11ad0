package graph

import "sort"

// Options selects which optional analyses to run. Degree statistics
// and components are always computed; centrality and bridge passes can
// be disabled to bound cost on large assemblies.
type Options struct {
	Centrality bool
	Bridges    bool
}

// Report is the immutable result of one analysis pass.
type Report struct {
	Parts      int     `json:"parts"`
	Edges      int     `json:"edges"`
	Density    float64 `json:"density"`
	Degrees    []int   `json:"degrees"`
	MinDegree  int     `json:"min_degree"`
	MaxDegree  int     `json:"max_degree"`
	MeanDegree float64 `json:"mean_degree"`
	Isolated   int     `json:"isolated"`

	// Centrality maps, indexed by node; nil when disabled.
	DegreeCentrality []float64 `json:"degree_centrality,omitempty"`
	Betweenness      []float64 `json:"betweenness,omitempty"`
	Closeness        []float64 `json:"closeness,omitempty"`

	// Bridges are edges whose removal disconnects the graph; nil when
	// the pass is disabled, empty when none exist.
	Bridges [][2]int `json:"bridges,omitempty"`

	// Components partitions the node set; isolated nodes form
	// singleton components. Component node lists are ascending.
	Components [][]int `json:"components"`
}

// Analyze computes the report for a graph. Analyses are read-only and
// an empty graph yields empty (not error) results.
func Analyze(g *Graph, opts Options) *Report {
	n := g.NodeCount()
	r := &Report{
		Parts:      n,
		Edges:      g.EdgeCount(),
		Density:    g.Density(),
		Degrees:    make([]int, n),
		Components: components(g),
	}

	for i := 0; i < n; i++ {
		d := g.Degree(i)
		r.Degrees[i] = d
		if d == 0 {
			r.Isolated++
		}
	}
	if n > 0 {
		r.MinDegree = r.Degrees[0]
		sum := 0
		for _, d := range r.Degrees {
			if d < r.MinDegree {
				r.MinDegree = d
			}
			if d > r.MaxDegree {
				r.MaxDegree = d
			}
			sum += d
		}
		r.MeanDegree = float64(sum) / float64(n)
	}

	if opts.Centrality {
		r.DegreeCentrality = degreeCentrality(g)
		r.Betweenness = betweenness(g)
		r.Closeness = closeness(g)
	}
	if opts.Bridges {
		r.Bridges = bridges(g)
	}
	return r
}

// degreeCentrality is degree(i) / (n-1), or 0 when n <= 1.
func degreeCentrality(g *Graph) []float64 {
	n := g.NodeCount()
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = float64(g.Degree(i)) / float64(n-1)
	}
	return out
}

// betweenness computes shortest-path betweenness centrality for every
// node (Brandes' algorithm over the unweighted graph), normalized by
// the number of ordered node pairs excluding the node itself:
// 2 / ((n-1)(n-2)) for undirected graphs. n < 3 yields all zeros.
func betweenness(g *Graph) []float64 {
	n := g.NodeCount()
	bc := make([]float64, n)
	if n < 3 {
		return bc
	}

	for s := 0; s < n; s++ {
		// BFS from s, recording predecessor lists and path counts.
		var stack []int
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.Neighbors(v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Accumulate dependencies in reverse BFS order.
		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	// Each undirected pair was counted twice (once per endpoint).
	norm := float64((n - 1) * (n - 2))
	for i := range bc {
		bc[i] /= norm
	}
	return bc
}

// closeness computes closeness centrality per connected component:
// (reachable-1) / (sum of shortest-path distances to reachable nodes).
// Nodes in other components contribute neither distance nor count.
// Isolated nodes score 0.
func closeness(g *Graph) []float64 {
	n := g.NodeCount()
	out := make([]float64, n)
	for s := 0; s < n; s++ {
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		dist[s] = 0
		queue := []int{s}
		sum, reachable := 0, 0
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.Neighbors(v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					sum += dist[w]
					reachable++
					queue = append(queue, w)
				}
			}
		}
		if reachable > 0 && sum > 0 {
			out[s] = float64(reachable) / float64(sum)
		}
	}
	return out
}

// bridges finds every edge whose removal increases the number of
// connected components, via a single depth-first traversal computing
// discovery times and low-links (Tarjan). Linear in nodes + edges.
// Returned edges have i < j and are sorted by discovery.
func bridges(g *Graph) [][2]int {
	n := g.NodeCount()
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0
	out := [][2]int{}

	var dfs func(u, parent int)
	dfs = func(u, parent int) {
		disc[u] = timer
		low[u] = timer
		timer++
		parentSkipped := false
		for _, v := range g.Neighbors(u) {
			if v == parent && !parentSkipped {
				// Skip the tree edge back to the parent exactly once;
				// parallel edges cannot occur in a contact graph.
				parentSkipped = true
				continue
			}
			if disc[v] < 0 {
				dfs(v, u)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] > disc[u] {
					a, b := u, v
					if a > b {
						a, b = b, a
					}
					out = append(out, [2]int{a, b})
				}
			} else if disc[v] < low[u] {
				low[u] = disc[v]
			}
		}
	}

	for u := 0; u < n; u++ {
		if disc[u] < 0 {
			dfs(u, -1)
		}
	}
	return out
}

// components partitions the node set by depth-first traversal.
func components(g *Graph) [][]int {
	n := g.NodeCount()
	seen := make([]bool, n)
	var out [][]int

	for start := 0; start < n; start++ {
		if seen[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		seen[start] = true
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, v)
			for _, w := range g.Neighbors(v) {
				if !seen[w] {
					seen[w] = true
					stack = append(stack, w)
				}
			}
		}
		sort.Ints(comp)
		out = append(out, comp)
	}
	return out
}
