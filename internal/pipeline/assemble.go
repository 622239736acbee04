package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
	"github.com/couchcryptid/storm-track-analysis/internal/observability"
	"github.com/couchcryptid/storm-track-analysis/internal/track"
)

// TrackStore is the persistence surface the assembly stage needs.
type TrackStore interface {
	UpsertPoints(ctx context.Context, points []domain.TrackPoint) (int, error)
	PointsForKey(ctx context.Context, key domain.TrackKey) ([]domain.TrackPoint, error)
	ReplaceTracksForKey(ctx context.Context, key domain.TrackKey, tracks []domain.StormTrack) error
}

// Assembler persists incoming track points and reassembles the storm tracks
// of every key group the batch touched. Reassembly works from the full stored
// point set of a group, so late or replayed events converge to the same
// tracks.
type Assembler struct {
	store     TrackStore
	assembler *track.Assembler
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewAssembler creates the pipeline assembly stage.
func NewAssembler(store TrackStore, cfg track.Config, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		store:     store,
		assembler: track.NewAssembler(cfg),
		logger:    logger,
		metrics:   metrics,
	}
}

// Ingest stores the batch of points and returns the refreshed tracks of every
// affected key group.
func (a *Assembler) Ingest(ctx context.Context, points []domain.TrackPoint) ([]domain.StormTrack, error) {
	start := time.Now()

	inserted, err := a.store.UpsertPoints(ctx, points)
	if err != nil {
		return nil, err
	}
	a.metrics.PointsStored.Add(float64(inserted))
	if inserted < len(points) {
		a.logger.Debug("skipped replayed points", "batch", len(points), "inserted", inserted)
	}

	keys := affectedKeys(points)
	var tracks []domain.StormTrack
	for _, key := range keys {
		stored, err := a.store.PointsForKey(ctx, key)
		if err != nil {
			return nil, err
		}
		assembled := a.assembler.Assemble(stored)
		if err := a.store.ReplaceTracksForKey(ctx, key, assembled); err != nil {
			return nil, err
		}
		tracks = append(tracks, assembled...)
	}

	a.metrics.TracksAssembled.Set(float64(len(tracks)))
	a.metrics.AssemblyDuration.Observe(time.Since(start).Seconds())
	return tracks, nil
}

// affectedKeys returns the distinct key groups of a batch in first-seen order.
func affectedKeys(points []domain.TrackPoint) []domain.TrackKey {
	seen := make(map[domain.TrackKey]struct{}, len(points))
	var keys []domain.TrackKey
	for _, p := range points {
		key := p.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
