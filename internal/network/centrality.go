package network

import (
	"fmt"
	"sort"

	gonumnetwork "gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
)

// Centrality measures exposed by the analysis API.
const (
	CentralityDegree      = "degree"
	CentralityBetweenness = "betweenness"
	CentralityCloseness   = "closeness"
)

// NodeScore is one node's value for a centrality measure.
type NodeScore struct {
	NodeID int64   `json:"node_id"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Score  float64 `json:"score"`
}

// Centrality computes a centrality measure for every node, sorted by
// descending score with node ID as the tiebreaker. The computation is
// delegated to gonum; this wrapper only attaches coordinates and fixes the
// ordering.
func (n *Network) Centrality(measure string) ([]NodeScore, error) {
	if len(n.nodes) == 0 {
		return nil, ErrEmptyNetwork
	}

	var scores map[int64]float64
	switch measure {
	case CentralityDegree:
		scores = make(map[int64]float64, len(n.nodes))
		for id := range n.nodes {
			scores[id] = float64(n.Degree(id))
		}
	case CentralityBetweenness:
		scores = gonumnetwork.Betweenness(n.g)
	case CentralityCloseness:
		// Dijkstra all-pairs rather than Floyd-Warshall: weights are
		// nonnegative geodesic lengths and road networks are sparse.
		scores = gonumnetwork.Closeness(n.g, path.DijkstraAllPaths(n.g))
	default:
		return nil, fmt.Errorf("unknown centrality measure %q", measure)
	}

	out := make([]NodeScore, 0, len(n.nodes))
	for _, id := range n.order {
		node := n.nodes[id]
		out = append(out, NodeScore{
			NodeID: id,
			Lon:    node.Point[0],
			Lat:    node.Point[1],
			Score:  scores[id], // Betweenness omits zero-score nodes; the map default covers them.
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}

// TopCentrality returns the k highest-scoring nodes for a measure. A k of
// zero or beyond the node count returns all nodes.
func (n *Network) TopCentrality(measure string, k int) ([]NodeScore, error) {
	scores, err := n.Centrality(measure)
	if err != nil {
		return nil, err
	}
	if k > 0 && k < len(scores) {
		scores = scores[:k]
	}
	return scores, nil
}
