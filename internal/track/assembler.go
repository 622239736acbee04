// Package track assembles storm-track trajectories from positioned point
// reports: group by track key, order by time, split on gaps, and reduce each
// run to a line geometry with summary statistics.
package track

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
)

// Config bounds what still counts as one storm cell within a key group.
type Config struct {
	// MaxGap is the largest time between consecutive reports of one track.
	// A gap strictly greater than this starts a new track.
	MaxGap time.Duration

	// MaxJump is the largest ground distance, in metres, between consecutive
	// reports of one track.
	MaxJump float64

	// MinPoints is the minimum number of reports to emit a track. Runs below
	// it are kept in the store as loose points but produce no track.
	MinPoints int
}

// DefaultConfig matches NWS warning practice: severe cells are re-reported
// well within two hours and rarely travel 150km between reports.
func DefaultConfig() Config {
	return Config{
		MaxGap:    2 * time.Hour,
		MaxJump:   150_000,
		MinPoints: 2,
	}
}

// Assembler groups track points into storm tracks.
type Assembler struct {
	cfg Config
}

// NewAssembler creates an Assembler, filling zero config fields from
// DefaultConfig.
func NewAssembler(cfg Config) *Assembler {
	def := DefaultConfig()
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = def.MaxGap
	}
	if cfg.MaxJump <= 0 {
		cfg.MaxJump = def.MaxJump
	}
	if cfg.MinPoints < 2 {
		cfg.MinPoints = def.MinPoints
	}
	return &Assembler{cfg: cfg}
}

// Assemble builds storm tracks from an unordered set of points. Output order
// is deterministic: tracks sort by key, then start time.
func (a *Assembler) Assemble(points []domain.TrackPoint) []domain.StormTrack {
	groups := make(map[domain.TrackKey][]domain.TrackPoint)
	for _, p := range points {
		key := p.Key()
		groups[key] = append(groups[key], p)
	}

	keys := make([]domain.TrackKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var tracks []domain.StormTrack
	for _, key := range keys {
		pts := groups[key]
		// Stable sort keeps source order for equal timestamps.
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })

		for _, run := range a.splitRuns(pts) {
			if len(run) < a.cfg.MinPoints {
				continue
			}
			tracks = append(tracks, buildTrack(key, run))
		}
	}
	return tracks
}

// splitRuns breaks a time-ordered point list where consecutive points exceed
// the gap or jump limits. Boundary values do not split.
func (a *Assembler) splitRuns(pts []domain.TrackPoint) [][]domain.TrackPoint {
	if len(pts) == 0 {
		return nil
	}
	var runs [][]domain.TrackPoint
	start := 0
	for i := 1; i < len(pts); i++ {
		gap := pts[i].Time.Sub(pts[i-1].Time)
		jump := geo.Distance(pts[i-1].Point, pts[i].Point)
		if gap > a.cfg.MaxGap || jump > a.cfg.MaxJump {
			runs = append(runs, pts[start:i])
			start = i
		}
	}
	return append(runs, pts[start:])
}

func buildTrack(key domain.TrackKey, pts []domain.TrackPoint) domain.StormTrack {
	line := make(orb.LineString, len(pts))
	for i, p := range pts {
		line[i] = p.Point
	}
	return domain.StormTrack{
		ID:     domain.TrackID(key, pts[0]),
		Key:    key,
		Points: pts,
		Line:   line,
		Stats:  computeStats(pts),
	}
}
