package retrieval

import (
	"sort"

	"github.com/topoteretes/cognee-go/engine/graph"
)

// degrees counts how many subgraph edges touch each node, in either
// direction — the graph_centrality term of the hybrid score.
func degrees(edges []graph.Edge) map[string]int {
	d := map[string]int{}
	for _, e := range edges {
		d[e.Source]++
		d[e.Target]++
	}
	return d
}

// freshness min-max normalizes UpdatedAt across nodes into [0, 1]. Ties
// (including the single-node and all-equal cases) resolve to 1 — recency
// can't discriminate when every candidate is equally fresh.
func freshness(nodes []graph.Node) map[string]float64 {
	out := make(map[string]float64, len(nodes))
	if len(nodes) == 0 {
		return out
	}
	min, max := nodes[0].UpdatedAt, nodes[0].UpdatedAt
	for _, n := range nodes {
		if n.UpdatedAt < min {
			min = n.UpdatedAt
		}
		if n.UpdatedAt > max {
			max = n.UpdatedAt
		}
	}
	if max == min {
		for _, n := range nodes {
			out[n.ID] = 1
		}
		return out
	}
	span := float64(max - min)
	for _, n := range nodes {
		out[n.ID] = float64(n.UpdatedAt-min) / span
	}
	return out
}

// rankNodes combines vector similarity, graph centrality, and freshness
// into the hybrid score and returns candidates sorted by Score desc, ties
// broken by UpdatedAt desc then ID asc.
func rankNodes(nodes []graph.Node, edges []graph.Edge, vectorScores map[string]float32, weights Weights) []Candidate {
	deg := degrees(edges)
	fresh := freshness(nodes)

	maxDeg := 1
	for _, n := range nodes {
		if d := deg[n.ID]; d > maxDeg {
			maxDeg = d
		}
	}

	candidates := make([]Candidate, 0, len(nodes))
	for _, n := range nodes {
		vecScore := vectorScores[n.ID]
		centrality := float64(deg[n.ID]) / float64(maxDeg)
		score := weights.Vector*float64(vecScore) + weights.Graph*centrality + weights.Freshness*fresh[n.ID]
		candidates = append(candidates, Candidate{
			ID:          n.ID,
			Label:       n.Label,
			Properties:  n.Properties,
			VectorScore: vecScore,
			Score:       score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		ni, nj := nodeByID(nodes, candidates[i].ID), nodeByID(nodes, candidates[j].ID)
		if ni.UpdatedAt != nj.UpdatedAt {
			return ni.UpdatedAt > nj.UpdatedAt
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

func nodeByID(nodes []graph.Node, id string) graph.Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
	}
	return graph.Node{}
}

// tripletsFromEdges reads (subject, relation, object) facts directly off a
// subgraph's edges, resolving endpoint labels to a display name where the
// node carries one.
func tripletsFromEdges(nodes []graph.Node, edges []graph.Edge) []Triplet {
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if name, ok := n.Properties["name"].(string); ok && name != "" {
			names[n.ID] = name
		} else {
			names[n.ID] = n.ID
		}
	}
	out := make([]Triplet, 0, len(edges))
	for _, e := range edges {
		out = append(out, Triplet{
			Subject:  displayName(names, e.Source),
			Relation: e.Relation,
			Object:   displayName(names, e.Target),
		})
	}
	return out
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
