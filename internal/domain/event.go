package domain

import (
	"context"
	"time"

	"github.com/paulmach/orb"
)

// StormEvent is the transformed storm report published by the upstream ETL
// service on its sink topic. Field names and JSON tags follow that contract;
// this service is a consumer and must not reinterpret them.
type StormEvent struct {
	ID           string    `json:"id"`
	EventType    string    `json:"type"` // "hail", "wind", or "tornado"
	Geo          Geo       `json:"geo,omitempty"`
	Magnitude    float64   `json:"magnitude"`
	Unit         string    `json:"unit"`
	Severity     string    `json:"severity,omitempty"`
	BeginTime    time.Time `json:"begin_time"`
	EndTime      time.Time `json:"end_time"`
	SourceOffice string    `json:"source_office,omitempty"`
	Location     Location  `json:"location,omitempty"`
	Comments     string    `json:"comments,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Geo is a WGS-84 latitude/longitude pair, as serialized upstream.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// Location carries the parsed NWS relative-location fields from upstream.
type Location struct {
	Raw       string  `json:"raw,omitempty"`
	Name      string  `json:"name,omitempty"`
	Distance  float64 `json:"distance,omitempty"`
	Direction string  `json:"direction,omitempty"`
	State     string  `json:"state,omitempty"`
	County    string  `json:"county,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// TrackPoint is one positioned storm observation, the unit the assembler and
// the store work in.
type TrackPoint struct {
	EventID      string
	EventType    string
	Point        orb.Point // {lon, lat}, WGS84
	Time         time.Time
	Magnitude    float64
	Unit         string
	Severity     string
	SourceOffice string
	State        string
	County       string
}

// Key returns the grouping key for track assembly.
func (p TrackPoint) Key() TrackKey {
	office := p.SourceOffice
	if office == "" {
		office = unknownOffice
	}
	return TrackKey{
		EventType: p.EventType,
		Office:    office,
		Day:       p.Time.UTC().Format("2006-01-02"),
	}
}

// StormTrack is an assembled trajectory: the time-ordered points of one storm
// cell and the line geometry they trace.
type StormTrack struct {
	ID     string
	Key    TrackKey
	Points []TrackPoint
	Line   orb.LineString
	Stats  TrackStats
}

// TrackStats summarizes an assembled track.
type TrackStats struct {
	PointCount   int           `json:"point_count"`
	LengthMeters float64       `json:"length_m"`
	Duration     time.Duration `json:"-"`
	MeanSpeed    float64       `json:"mean_speed_ms"` // metres per second over moving segments
	MaxSpeed     float64       `json:"max_speed_ms"`
	MaxMagnitude float64       `json:"max_magnitude"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
}

// TrackSummary is the serialized form published to the sink topic when a
// track is assembled or updated.
type TrackSummary struct {
	ID           string    `json:"id"`
	EventType    string    `json:"type"`
	SourceOffice string    `json:"source_office"`
	Day          string    `json:"day"`
	PointCount   int       `json:"point_count"`
	LengthMeters float64   `json:"length_m"`
	DurationSecs float64   `json:"duration_s"`
	MaxMagnitude float64   `json:"max_magnitude"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Summary builds the sink-topic representation of a track.
func (t StormTrack) Summary() TrackSummary {
	return TrackSummary{
		ID:           t.ID,
		EventType:    t.Key.EventType,
		SourceOffice: t.Key.Office,
		Day:          t.Key.Day,
		PointCount:   t.Stats.PointCount,
		LengthMeters: t.Stats.LengthMeters,
		DurationSecs: t.Stats.Duration.Seconds(),
		MaxMagnitude: t.Stats.MaxMagnitude,
		Start:        t.Stats.Start,
		End:          t.Stats.End,
		ProcessedAt:  clock.Now(),
	}
}
