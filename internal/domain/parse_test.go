package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

func TestParseTrackPoint(t *testing.T) {
	t.Run("transformed hail event", func(t *testing.T) {
		data := []byte(`{"id":"hail-abc123","type":"hail","geo":{"lat":31.02,"lon":-98.44},"magnitude":1.25,"unit":"in","severity":"moderate","begin_time":"2024-04-26T15:10:00Z","end_time":"2024-04-26T15:10:00Z","source_office":"SJT","location":{"raw":"8 ESE Chappel","state":"TX","county":"San Saba"}}`)
		raw := RawEvent{Value: data, Timestamp: baseDate}

		p, err := ParseTrackPoint(raw)
		require.NoError(t, err)
		assert.Equal(t, "hail-abc123", p.EventID)
		assert.Equal(t, "hail", p.EventType)
		assert.Equal(t, orb.Point{-98.44, 31.02}, p.Point)
		assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), p.Time)
		assert.Equal(t, 1.25, p.Magnitude)
		assert.Equal(t, "in", p.Unit)
		assert.Equal(t, "moderate", p.Severity)
		assert.Equal(t, "SJT", p.SourceOffice)
		assert.Equal(t, "TX", p.State)
		assert.Equal(t, "San Saba", p.County)
	})

	t.Run("missing coordinates rejected", func(t *testing.T) {
		data := []byte(`{"id":"wind-1","type":"wind","begin_time":"2024-04-26T12:00:00Z"}`)
		_, err := ParseTrackPoint(RawEvent{Value: data})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no coordinates")
	})

	t.Run("out of range coordinates rejected", func(t *testing.T) {
		data := []byte(`{"id":"wind-2","type":"wind","geo":{"lat":95.0,"lon":-98.4},"begin_time":"2024-04-26T12:00:00Z"}`)
		_, err := ParseTrackPoint(RawEvent{Value: data})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("message timestamp is the fallback", func(t *testing.T) {
		data := []byte(`{"id":"hail-3","type":"hail","geo":{"lat":31.0,"lon":-98.4}}`)
		p, err := ParseTrackPoint(RawEvent{Value: data, Timestamp: baseDate})
		require.NoError(t, err)
		assert.Equal(t, baseDate, p.Time)
	})

	t.Run("no timestamp at all rejected", func(t *testing.T) {
		data := []byte(`{"id":"hail-4","type":"hail","geo":{"lat":31.0,"lon":-98.4}}`)
		_, err := ParseTrackPoint(RawEvent{Value: data})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no timestamp")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseTrackPoint(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse storm event")
	})
}

func TestTrackKey(t *testing.T) {
	p := TrackPoint{
		EventType:    "tornado",
		SourceOffice: "TSA",
		Time:         time.Date(2024, 4, 26, 23, 59, 0, 0, time.UTC),
	}
	key := p.Key()
	assert.Equal(t, TrackKey{EventType: "tornado", Office: "TSA", Day: "2024-04-26"}, key)
	assert.Equal(t, "tornado|TSA|2024-04-26", key.String())

	t.Run("missing office groups under UNKN", func(t *testing.T) {
		p := TrackPoint{EventType: "wind", Time: baseDate}
		assert.Equal(t, "UNKN", p.Key().Office)
	})

	t.Run("day boundary in UTC", func(t *testing.T) {
		late := TrackPoint{EventType: "wind", SourceOffice: "OUN",
			Time: time.Date(2024, 4, 26, 23, 0, 0, 0, time.FixedZone("CDT", -5*3600))}
		assert.Equal(t, "2024-04-27", late.Key().Day)
	})
}

func TestTrackID(t *testing.T) {
	first := TrackPoint{Point: orb.Point{-98.44, 31.02}, Time: baseDate}
	key := TrackKey{EventType: "hail", Office: "SJT", Day: "2024-04-26"}

	id1 := TrackID(key, first)
	id2 := TrackID(key, first)
	assert.Equal(t, id1, id2, "same inputs must produce the same ID")
	assert.True(t, strings.HasPrefix(id1, "hail-track-"))

	moved := first
	moved.Point = orb.Point{-98.45, 31.02}
	assert.NotEqual(t, id1, TrackID(key, moved))

	t.Run("empty event type", func(t *testing.T) {
		id := TrackID(TrackKey{Office: "UNKN", Day: "2024-04-26"}, first)
		assert.True(t, strings.HasPrefix(id, "track-"))
	})
}
