package schedule

import (
	"sort"

	"github.com/duragraph/duragraph/internal/domain/depgraph"
	"github.com/duragraph/duragraph/internal/domain/node"
)

// ComputeReducedGraph summarizes a fully compiled node's external causal
// behaviour: for every (output, input) pair, the minimum total delay
// along any path between them through the node's own equations. Delayed
// edges (fby cells) can close real cycles inside a node without that
// being a causality error, so this uses a Bellman-Ford-style relaxation
// rather than a DAG shortest path: all weights are non-negative, so the
// relaxation still converges in at most len(vertices) rounds even in the
// presence of cycles.
func ComputeReducedGraph(n *node.Node) *node.ReducedGraph {
	g := BuildDependencyGraph(n)
	rg := node.NewReducedGraph()

	for _, in := range n.Inputs {
		dist := shortestDistances(g, in)
		for _, out := range n.Outputs {
			if label, ok := dist[out]; ok {
				rg.Set(out, in, label)
			}
		}
	}
	return rg
}

func shortestDistances(g *depgraph.Graph, src int) map[int]depgraph.Label {
	dist := map[int]depgraph.Label{src: depgraph.Zero()}
	vertices := g.Vertices()
	sort.Ints(vertices)

	for i := 0; i < len(vertices); i++ {
		changed := false
		for _, v := range vertices {
			dv, ok := dist[v]
			if !ok {
				continue
			}
			for _, e := range g.OutgoingEdges(v) {
				nd := dv.Add(e.Label)
				if cur, ok := dist[e.To]; !ok || nd.Less(cur) {
					dist[e.To] = nd
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return dist
}
