package track

import (
	"github.com/paulmach/orb/geo"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
)

// computeStats summarizes a time-ordered point run. Speeds are computed per
// segment; segments with no elapsed time contribute distance but no speed
// sample (simultaneous reports of one cell from different spotters).
func computeStats(pts []domain.TrackPoint) domain.TrackStats {
	stats := domain.TrackStats{
		PointCount: len(pts),
		Start:      pts[0].Time,
		End:        pts[len(pts)-1].Time,
	}
	stats.Duration = stats.End.Sub(stats.Start)

	var speeds []float64
	for i := 1; i < len(pts); i++ {
		dist := geo.Distance(pts[i-1].Point, pts[i].Point)
		stats.LengthMeters += dist

		if dt := pts[i].Time.Sub(pts[i-1].Time).Seconds(); dt > 0 {
			speed := dist / dt
			speeds = append(speeds, speed)
			if speed > stats.MaxSpeed {
				stats.MaxSpeed = speed
			}
		}
	}
	if len(speeds) > 0 {
		stats.MeanSpeed = stat.Mean(speeds, nil)
	}

	for _, p := range pts {
		if p.Magnitude > stats.MaxMagnitude {
			stats.MaxMagnitude = p.Magnitude
		}
	}
	return stats
}
