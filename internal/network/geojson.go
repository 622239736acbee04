package network

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LinesFromGeoJSON extracts line geometries from a GeoJSON FeatureCollection.
// MultiLineStrings are split into their parts. The skipped count reports
// features with other geometry types (points, polygons), which a network
// source should not contain but road extracts sometimes do.
func LinesFromGeoJSON(data []byte) (lines []orb.LineString, skipped int, err error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse network geojson: %w", err)
	}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = append(lines, g)
		case orb.MultiLineString:
			for _, part := range g {
				lines = append(lines, orb.LineString(part))
			}
		default:
			skipped++
		}
	}
	return lines, skipped, nil
}

// ToGeoJSON exports the network as a FeatureCollection: one LineString
// feature per edge, one Point feature per node.
func (n *Network) ToGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range n.Edges() {
		f := geojson.NewFeature(e.Line)
		f.Properties = geojson.Properties{
			"from":     e.From,
			"to":       e.To,
			"length_m": e.Weight,
		}
		fc.Append(f)
	}
	for _, node := range n.Nodes() {
		f := geojson.NewFeature(node.Point)
		f.Properties = geojson.Properties{
			"node_id": node.ID,
			"degree":  n.Degree(node.ID),
		}
		fc.Append(f)
	}
	return fc
}

// RouteFeature renders a route as a GeoJSON LineString feature.
func RouteFeature(r Route) *geojson.Feature {
	f := geojson.NewFeature(r.Line)
	f.Properties = geojson.Properties{
		"length_m":   r.Meters,
		"node_count": len(r.NodeIDs),
		"from_node":  r.NodeIDs[0],
		"to_node":    r.NodeIDs[len(r.NodeIDs)-1],
	}
	return f
}

// CentralityFeatureCollection renders node scores as Point features, for
// overlaying a centrality surface on a map.
func CentralityFeatureCollection(measure string, scores []NodeScore) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range scores {
		f := geojson.NewFeature(orb.Point{s.Lon, s.Lat})
		f.Properties = geojson.Properties{
			"node_id": s.NodeID,
			"measure": measure,
			"score":   s.Score,
		}
		fc.Append(f)
	}
	return fc
}
