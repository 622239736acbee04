// Package network converts line geometries into a routable node/edge graph
// and exposes the graph analysis the service offers: shortest paths,
// centrality measures, and connected components. The graph algorithms are
// gonum's; this package owns the geometry bookkeeping around them.
package network

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrEmptyNetwork is returned by queries that need at least one node.
var ErrEmptyNetwork = errors.New("network has no nodes")

// Node is a deduplicated line endpoint.
type Node struct {
	ID    int64
	Point orb.Point // {lon, lat}, WGS84
}

// Edge connects two nodes with the geometry of the source line that produced
// it. Weight is the geodesic length of that line in metres.
type Edge struct {
	From   int64
	To     int64
	Weight float64
	Line   orb.LineString
}

// BuildStats reports what Build did with its input.
type BuildStats struct {
	Lines             int // input lines seen
	Nodes             int
	Edges             int
	DroppedDegenerate int // lines whose endpoints snap to the same node
	DroppedParallel   int // longer duplicates of an existing node pair
}

// Network is an immutable spatial graph. Construct with Build; the query
// methods are safe for concurrent use.
type Network struct {
	g     *simple.WeightedUndirectedGraph
	nodes map[int64]Node
	order []int64           // node IDs in ascending order
	edges map[[2]int64]Edge // keyed by canonical (low, high) pair
	stats BuildStats

	routes *routeCache
}

// snapScale rounds coordinates to 7 decimal places (~1cm at the equator)
// when matching endpoints, the precision at which two digitized endpoints
// are the same junction.
const snapScale = 1e7

func snap(p orb.Point) [2]int64 {
	return [2]int64{
		int64(math.Round(p[0] * snapScale)),
		int64(math.Round(p[1] * snapScale)),
	}
}

// Build constructs a network from line geometries: endpoints are snapped and
// deduplicated into nodes, and each line becomes one weighted edge. Lines
// that collapse to a point are dropped, and when two lines join the same
// node pair only the shorter survives.
func Build(lines []orb.LineString) *Network {
	n := &Network{
		g:      simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		nodes:  make(map[int64]Node),
		edges:  make(map[[2]int64]Edge),
		routes: newRouteCache(defaultRouteCacheSize),
	}
	n.stats.Lines = len(lines)

	byCoord := make(map[[2]int64]int64)
	nextID := int64(0)

	nodeFor := func(p orb.Point) int64 {
		key := snap(p)
		if id, ok := byCoord[key]; ok {
			return id
		}
		id := nextID
		nextID++
		byCoord[key] = id
		n.nodes[id] = Node{ID: id, Point: p}
		n.g.AddNode(simple.Node(id))
		return id
	}

	for _, line := range lines {
		if len(line) < 2 {
			n.stats.DroppedDegenerate++
			continue
		}
		u := nodeFor(line[0])
		v := nodeFor(line[len(line)-1])
		if u == v {
			n.stats.DroppedDegenerate++
			continue
		}

		weight := lineLength(line)
		key := edgeKey(u, v)
		if existing, ok := n.edges[key]; ok {
			n.stats.DroppedParallel++
			if weight >= existing.Weight {
				continue
			}
			// The shorter duplicate replaces the longer one.
		}
		n.edges[key] = Edge{From: u, To: v, Weight: weight, Line: line}
		n.g.SetWeightedEdge(n.g.NewWeightedEdge(simple.Node(u), simple.Node(v), weight))
	}

	n.order = make([]int64, 0, len(n.nodes))
	for id := range n.nodes {
		n.order = append(n.order, id)
	}
	sort.Slice(n.order, func(i, j int) bool { return n.order[i] < n.order[j] })

	n.stats.Nodes = len(n.nodes)
	n.stats.Edges = len(n.edges)
	return n
}

func edgeKey(u, v int64) [2]int64 {
	if u > v {
		u, v = v, u
	}
	return [2]int64{u, v}
}

func lineLength(line orb.LineString) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += geo.Distance(line[i-1], line[i])
	}
	return total
}

// Stats returns the build report.
func (n *Network) Stats() BuildStats { return n.stats }

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int { return len(n.nodes) }

// EdgeCount returns the number of edges.
func (n *Network) EdgeCount() int { return len(n.edges) }

// Node returns a node by ID.
func (n *Network) Node(id int64) (Node, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// Nodes returns all nodes in ascending ID order.
func (n *Network) Nodes() []Node {
	out := make([]Node, len(n.order))
	for i, id := range n.order {
		out[i] = n.nodes[id]
	}
	return out
}

// Edges returns all edges, ordered by their canonical node pair.
func (n *Network) Edges() []Edge {
	keys := make([][2]int64, 0, len(n.edges))
	for k := range n.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	out := make([]Edge, len(keys))
	for i, k := range keys {
		out[i] = n.edges[k]
	}
	return out
}

// TotalLength returns the summed edge length in metres.
func (n *Network) TotalLength() float64 {
	var total float64
	for _, e := range n.edges {
		total += e.Weight
	}
	return total
}

// Degree returns the number of edges incident to a node.
func (n *Network) Degree(id int64) int {
	if _, ok := n.nodes[id]; !ok {
		return 0
	}
	return n.g.From(id).Len()
}

// NearestNode returns the node closest to the given point by geodesic
// distance, and that distance in metres.
func (n *Network) NearestNode(p orb.Point) (Node, float64, error) {
	if len(n.nodes) == 0 {
		return Node{}, 0, ErrEmptyNetwork
	}
	best := Node{}
	bestDist := math.Inf(1)
	for _, id := range n.order {
		node := n.nodes[id]
		d := geo.Distance(p, node.Point)
		if d < bestDist {
			best = node
			bestDist = d
		}
	}
	return best, bestDist, nil
}

// Components returns the connected components as node ID sets, largest
// first. IDs within a component are ascending.
func (n *Network) Components() [][]int64 {
	comps := topo.ConnectedComponents(n.g)
	out := make([][]int64, len(comps))
	for i, comp := range comps {
		ids := make([]int64, len(comp))
		for j, node := range comp {
			ids[j] = node.ID()
		}
		sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
		out[i] = ids
	}
	sort.SliceStable(out, func(a, b int) bool {
		if len(out[a]) != len(out[b]) {
			return len(out[a]) > len(out[b])
		}
		return out[a][0] < out[b][0]
	})
	return out
}

// LargestComponent returns the sub-network induced by the largest connected
// component, preserving node IDs. Analysis that assumes reachability
// (closeness centrality, routing demos) runs on this.
func (n *Network) LargestComponent() *Network {
	comps := n.Components()
	if len(comps) <= 1 {
		return n
	}
	keep := make(map[int64]bool, len(comps[0]))
	for _, id := range comps[0] {
		keep[id] = true
	}

	sub := &Network{
		g:      simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		nodes:  make(map[int64]Node),
		edges:  make(map[[2]int64]Edge),
		routes: newRouteCache(defaultRouteCacheSize),
	}
	for id, node := range n.nodes {
		if keep[id] {
			sub.nodes[id] = node
			sub.g.AddNode(simple.Node(id))
		}
	}
	for key, e := range n.edges {
		if keep[e.From] && keep[e.To] {
			sub.edges[key] = e
			sub.g.SetWeightedEdge(sub.g.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), e.Weight))
		}
	}
	sub.order = make([]int64, 0, len(sub.nodes))
	for id := range sub.nodes {
		sub.order = append(sub.order, id)
	}
	sort.Slice(sub.order, func(i, j int) bool { return sub.order[i] < sub.order[j] })
	sub.stats = BuildStats{
		Lines: n.stats.Lines,
		Nodes: len(sub.nodes),
		Edges: len(sub.edges),
	}
	return sub
}

// edge returns the stored edge between two adjacent nodes.
func (n *Network) edge(u, v int64) (Edge, error) {
	e, ok := n.edges[edgeKey(u, v)]
	if !ok {
		return Edge{}, fmt.Errorf("no edge between nodes %d and %d", u, v)
	}
	return e, nil
}
