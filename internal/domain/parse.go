package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// unknownOffice stands in for events whose upstream comment carried no WFO
// code. Grouping them together per day keeps them out of real-office tracks.
const unknownOffice = "UNKN"

// ParseTrackPoint deserializes a RawEvent's value into a TrackPoint.
// The payload is the upstream ETL service's StormEvent JSON.
func ParseTrackPoint(raw RawEvent) (TrackPoint, error) {
	var ev StormEvent
	if err := json.Unmarshal(raw.Value, &ev); err != nil {
		return TrackPoint{}, fmt.Errorf("parse storm event: %w", err)
	}

	if ev.Geo.Lat == 0 && ev.Geo.Lon == 0 {
		return TrackPoint{}, fmt.Errorf("parse storm event %s: no coordinates", ev.ID)
	}
	if ev.Geo.Lat < -90 || ev.Geo.Lat > 90 || ev.Geo.Lon < -180 || ev.Geo.Lon > 180 {
		return TrackPoint{}, fmt.Errorf("parse storm event %s: coordinates out of range (%.4f, %.4f)",
			ev.ID, ev.Geo.Lat, ev.Geo.Lon)
	}

	// BeginTime is authoritative; the message timestamp is the fallback for
	// replays of older data where the collector predates the time fields.
	eventTime := ev.BeginTime
	if eventTime.IsZero() {
		eventTime = raw.Timestamp
	}
	if eventTime.IsZero() {
		return TrackPoint{}, fmt.Errorf("parse storm event %s: no timestamp", ev.ID)
	}

	return TrackPoint{
		EventID:      ev.ID,
		EventType:    ev.EventType,
		Point:        orb.Point{ev.Geo.Lon, ev.Geo.Lat},
		Time:         eventTime.UTC(),
		Magnitude:    ev.Magnitude,
		Unit:         ev.Unit,
		Severity:     ev.Severity,
		SourceOffice: ev.SourceOffice,
		State:        ev.Location.State,
		County:       ev.Location.County,
	}, nil
}

// TrackKey groups points into candidate tracks. Upstream SPC reports carry no
// storm identifier, so cells are keyed by event type, reporting office, and
// UTC day; the assembler further splits a key group on time and distance gaps.
type TrackKey struct {
	EventType string
	Office    string
	Day       string // "2006-01-02", UTC
}

func (k TrackKey) String() string {
	return k.EventType + "|" + k.Office + "|" + k.Day
}

// TrackID produces a deterministic ID from the track's key and first point.
// Reassembling the same points yields the same ID, which makes persistence
// idempotent across pipeline replays.
func TrackID(key TrackKey, first TrackPoint) string {
	input := fmt.Sprintf("%s|%s|%.7f|%.7f", key, first.Time.UTC().Format(time.RFC3339), first.Point[0], first.Point[1])
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if key.EventType == "" {
		return "track-" + short
	}
	return key.EventType + "-track-" + short
}
