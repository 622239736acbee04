package network

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLines builds a small network near the equator where 0.01 degrees is
// roughly 1.1km:
//
//	D(3)--C(2)
//	|      |
//	A(0)--B(1)--E(4)    F(5)--G(6)  (disconnected)
//
// Node IDs follow endpoint-first-seen order.
func testLines() []orb.LineString {
	a := orb.Point{0, 0}
	b := orb.Point{0.01, 0}
	c := orb.Point{0.01, 0.01}
	d := orb.Point{0, 0.01}
	e := orb.Point{0.02, 0}
	f := orb.Point{1, 1}
	g := orb.Point{1.01, 1}
	return []orb.LineString{
		{a, b},
		{b, c},
		{c, d},
		{d, a},
		{b, e},
		{f, g},
	}
}

func TestBuild(t *testing.T) {
	n := Build(testLines())

	stats := n.Stats()
	assert.Equal(t, 6, stats.Lines)
	assert.Equal(t, 7, stats.Nodes)
	assert.Equal(t, 6, stats.Edges)
	assert.Equal(t, 0, stats.DroppedDegenerate)
	assert.Equal(t, 0, stats.DroppedParallel)

	node, ok := n.Node(1)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0.01, 0}, node.Point)
	assert.Equal(t, 3, n.Degree(1), "B joins three lines")
	assert.Equal(t, 1, n.Degree(4), "E is a dead end")

	assert.InDelta(t, 6*1113.2, n.TotalLength(), 60)
}

func TestBuild_SnapsNearbyEndpoints(t *testing.T) {
	// Endpoints within 1e-7 degrees are the same junction.
	lines := []orb.LineString{
		{{0, 0}, {0.01, 0}},
		{{0.010000001, 0.000000004}, {0.02, 0}},
	}
	n := Build(lines)
	assert.Equal(t, 3, n.NodeCount())
	assert.Equal(t, 2, n.EdgeCount())
}

func TestBuild_DropsDegenerateLines(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {0.01, 0}},
		{{0.05, 0.05}, {0.05, 0.05}}, // collapses to a point
		{{0.07, 0}},                  // too short to be a line
	}
	n := Build(lines)
	assert.Equal(t, 2, n.Stats().DroppedDegenerate)
	assert.Equal(t, 1, n.EdgeCount())
}

func TestBuild_ParallelEdgesKeepShortest(t *testing.T) {
	direct := orb.LineString{{0, 0}, {0.01, 0}}
	detour := orb.LineString{{0, 0}, {0.005, 0.005}, {0.01, 0}}

	n := Build([]orb.LineString{detour, direct})
	assert.Equal(t, 1, n.Stats().DroppedParallel)
	require.Equal(t, 1, n.EdgeCount())

	e := n.Edges()[0]
	assert.Len(t, e.Line, 2, "the direct line wins")

	// Same input in the other order keeps the same survivor.
	n2 := Build([]orb.LineString{direct, detour})
	assert.Equal(t, 1, n2.Stats().DroppedParallel)
	assert.Len(t, n2.Edges()[0].Line, 2)
}

func TestBuild_Empty(t *testing.T) {
	n := Build(nil)
	assert.Equal(t, 0, n.NodeCount())
	assert.Equal(t, 0, n.EdgeCount())

	_, _, err := n.NearestNode(orb.Point{0, 0})
	require.ErrorIs(t, err, ErrEmptyNetwork)

	_, err = n.Centrality(CentralityDegree)
	require.ErrorIs(t, err, ErrEmptyNetwork)
}

func TestNearestNode(t *testing.T) {
	n := Build(testLines())

	node, dist, err := n.NearestNode(orb.Point{0.0101, 0.0001})
	require.NoError(t, err)
	assert.Equal(t, int64(1), node.ID)
	assert.Less(t, dist, 50.0)
}

func TestComponents(t *testing.T) {
	n := Build(testLines())

	comps := n.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, comps[0])
	assert.Equal(t, []int64{5, 6}, comps[1])

	largest := n.LargestComponent()
	assert.Equal(t, 5, largest.NodeCount())
	assert.Equal(t, 5, largest.EdgeCount())

	// Node IDs are preserved in the sub-network.
	node, ok := largest.Node(4)
	require.True(t, ok)
	assert.Equal(t, orb.Point{0.02, 0}, node.Point)
	_, ok = largest.Node(5)
	assert.False(t, ok)
}

func TestShortestPath(t *testing.T) {
	n := Build(testLines())

	t.Run("two hops through a junction", func(t *testing.T) {
		r, err := n.ShortestPath(0, 4) // A -> B -> E
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 1, 4}, r.NodeIDs)
		assert.InDelta(t, 2*1113.2, r.Meters, 20)

		// Geometry is continuous with no duplicated joint vertex.
		require.Len(t, r.Line, 3)
		assert.Equal(t, orb.Point{0, 0}, r.Line[0])
		assert.Equal(t, orb.Point{0.02, 0}, r.Line[2])
	})

	t.Run("same node", func(t *testing.T) {
		r, err := n.ShortestPath(2, 2)
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, r.NodeIDs)
		assert.Zero(t, r.Meters)
	})

	t.Run("disconnected", func(t *testing.T) {
		_, err := n.ShortestPath(0, 5)
		require.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := n.ShortestPath(0, 99)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown node")
	})
}

func TestShortestPath_CachedAndReversed(t *testing.T) {
	n := Build(testLines())

	first, err := n.ShortestPath(0, 4)
	require.NoError(t, err)
	again, err := n.ShortestPath(0, 4)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	back, err := n.ShortestPath(4, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1, 0}, back.NodeIDs)
	assert.Equal(t, first.Meters, back.Meters)
	assert.Equal(t, first.Line[0], back.Line[len(back.Line)-1])
}

func TestRouteBetween(t *testing.T) {
	n := Build(testLines())

	r, fromDist, toDist, err := n.RouteBetween(orb.Point{-0.0001, 0.0001}, orb.Point{0.0201, 0})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 4}, r.NodeIDs)
	assert.Less(t, fromDist, 100.0)
	assert.Less(t, toDist, 100.0)
}

func TestCentrality(t *testing.T) {
	n := Build(testLines()).LargestComponent()

	t.Run("degree", func(t *testing.T) {
		scores, err := n.Centrality(CentralityDegree)
		require.NoError(t, err)
		require.Len(t, scores, 5)
		assert.Equal(t, int64(1), scores[0].NodeID, "the junction has the highest degree")
		assert.Equal(t, 3.0, scores[0].Score)
	})

	t.Run("betweenness", func(t *testing.T) {
		scores, err := n.Centrality(CentralityBetweenness)
		require.NoError(t, err)
		assert.Equal(t, int64(1), scores[0].NodeID, "every path to the dead end crosses the junction")
		assert.Greater(t, scores[0].Score, 0.0)
	})

	t.Run("closeness", func(t *testing.T) {
		scores, err := n.Centrality(CentralityCloseness)
		require.NoError(t, err)
		require.Len(t, scores, 5)
		for _, s := range scores {
			assert.Greater(t, s.Score, 0.0)
		}
	})

	t.Run("unknown measure", func(t *testing.T) {
		_, err := n.Centrality("pagerank")
		require.Error(t, err)
	})

	t.Run("top k", func(t *testing.T) {
		scores, err := n.TopCentrality(CentralityDegree, 2)
		require.NoError(t, err)
		assert.Len(t, scores, 2)

		all, err := n.TopCentrality(CentralityDegree, 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}
