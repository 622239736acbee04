package track

import (
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
)

// ToFeature renders one track as a GeoJSON LineString feature with its key
// and statistics in the properties.
func ToFeature(t domain.StormTrack) *geojson.Feature {
	f := geojson.NewFeature(t.Line)
	f.ID = t.ID
	f.Properties = geojson.Properties{
		"id":            t.ID,
		"event_type":    t.Key.EventType,
		"source_office": t.Key.Office,
		"day":           t.Key.Day,
		"point_count":   t.Stats.PointCount,
		"length_m":      t.Stats.LengthMeters,
		"duration_s":    t.Stats.Duration.Seconds(),
		"mean_speed_ms": t.Stats.MeanSpeed,
		"max_speed_ms":  t.Stats.MaxSpeed,
		"max_magnitude": t.Stats.MaxMagnitude,
		"start":         t.Stats.Start,
		"end":           t.Stats.End,
	}
	return f
}

// ToFeatureCollection renders a set of tracks as a GeoJSON FeatureCollection.
func ToFeatureCollection(tracks []domain.StormTrack) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range tracks {
		fc.Append(ToFeature(t))
	}
	return fc
}
