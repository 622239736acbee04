package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph/path"
)

// ErrNoRoute is returned when the two nodes are in different components.
var ErrNoRoute = errors.New("no route between nodes")

// Route is a shortest path through the network.
type Route struct {
	NodeIDs []int64
	Line    orb.LineString // concatenated edge geometries, oriented from -> to
	Meters  float64
}

// ShortestPath runs Dijkstra between two node IDs and reconstructs the route
// geometry from the traversed edges. Results are cached; the network is
// immutable so entries never go stale.
func (n *Network) ShortestPath(from, to int64) (Route, error) {
	if _, ok := n.nodes[from]; !ok {
		return Route{}, fmt.Errorf("unknown node %d", from)
	}
	if _, ok := n.nodes[to]; !ok {
		return Route{}, fmt.Errorf("unknown node %d", to)
	}
	if from == to {
		return Route{NodeIDs: []int64{from}, Line: orb.LineString{n.nodes[from].Point}}, nil
	}

	if r, ok := n.routes.get(from, to); ok {
		return r, nil
	}

	shortest := path.DijkstraFrom(n.g.Node(from), n.g)
	nodes, weight := shortest.To(to)
	if math.IsInf(weight, 1) || len(nodes) == 0 {
		return Route{}, fmt.Errorf("%w: %d -> %d", ErrNoRoute, from, to)
	}

	r := Route{
		NodeIDs: make([]int64, len(nodes)),
		Meters:  weight,
	}
	for i, node := range nodes {
		r.NodeIDs[i] = node.ID()
	}

	line, err := n.assembleLine(r.NodeIDs)
	if err != nil {
		return Route{}, err
	}
	r.Line = line

	n.routes.put(from, to, r)
	return r, nil
}

// assembleLine stitches the stored edge geometries along a node sequence,
// flipping each edge's line so it runs in travel direction and skipping the
// duplicated joint vertex.
func (n *Network) assembleLine(nodeIDs []int64) (orb.LineString, error) {
	var out orb.LineString
	for i := 1; i < len(nodeIDs); i++ {
		u, v := nodeIDs[i-1], nodeIDs[i]
		e, err := n.edge(u, v)
		if err != nil {
			return nil, err
		}
		seg := e.Line
		if e.From != u {
			seg = reverseLine(seg)
		}
		if len(out) > 0 {
			seg = seg[1:]
		}
		out = append(out, seg...)
	}
	return out, nil
}

func reverseLine(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

// RouteBetween snaps two arbitrary points to their nearest nodes and routes
// between them. The returned distances report how far each point was from
// its snapped node.
func (n *Network) RouteBetween(from, to orb.Point) (Route, float64, float64, error) {
	fromNode, fromDist, err := n.NearestNode(from)
	if err != nil {
		return Route{}, 0, 0, err
	}
	toNode, toDist, err := n.NearestNode(to)
	if err != nil {
		return Route{}, 0, 0, err
	}
	route, err := n.ShortestPath(fromNode.ID, toNode.ID)
	if err != nil {
		return Route{}, 0, 0, err
	}
	return route, fromDist, toDist, nil
}
