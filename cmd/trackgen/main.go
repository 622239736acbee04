// Command trackgen reads a transformed storm report JSON fixture (the
// upstream ETL service's sink format) and generates track fixtures for the
// test suites: the assembled tracks as GeoJSON and their sink-topic
// summaries as JSON. It uses the actual assembly packages so fixtures match
// real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/trackgen \
//	  -events data/mock/storm_reports_240426_transformed.json \
//	  -geojson-out data/mock/storm_tracks_240426.geojson \
//	  -summary-out data/mock/storm_track_summaries_240426.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
	"github.com/couchcryptid/storm-track-analysis/internal/track"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	eventsPath := flag.String("events", "", "input path of transformed storm report JSON")
	geojsonOut := flag.String("geojson-out", "", "output path for assembled tracks GeoJSON")
	summaryOut := flag.String("summary-out", "", "output path for track summary JSON fixture")
	flag.Parse()

	if *eventsPath == "" || *geojsonOut == "" || *summaryOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -events, -geojson-out, -summary-out")
	}

	// Fix the clock so ProcessedAt in the summary fixture is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	data, err := os.ReadFile(*eventsPath)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	var events []domain.StormEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("parse events: %w", err)
	}

	points := make([]domain.TrackPoint, 0, len(events))
	dropped := 0
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
		p, err := domain.ParseTrackPoint(domain.RawEvent{Key: []byte(e.ID), Value: value})
		if err != nil {
			dropped++
			continue
		}
		points = append(points, p)
	}
	log.Printf("events: %d, points: %d, dropped: %d", len(events), len(points), dropped)

	tracks := track.NewAssembler(track.DefaultConfig()).Assemble(points)
	log.Printf("assembled %d tracks", len(tracks))

	fc := track.ToFeatureCollection(tracks)
	if err := writeJSON(*geojsonOut, fc); err != nil {
		return fmt.Errorf("writing GeoJSON fixture: %w", err)
	}
	log.Printf("wrote GeoJSON fixture: %s", *geojsonOut)

	summaries := make([]domain.TrackSummary, 0, len(tracks))
	for _, t := range tracks {
		summaries = append(summaries, t.Summary())
	}
	if err := writeJSON(*summaryOut, summaries); err != nil {
		return fmt.Errorf("writing summary fixture: %w", err)
	}
	log.Printf("wrote summary fixture: %s", *summaryOut)

	printStats(tracks)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printStats(tracks []domain.StormTrack) {
	byType := map[string]int{}
	totalLength := 0.0
	maxPoints := 0
	for _, t := range tracks {
		byType[t.Key.EventType]++
		totalLength += t.Stats.LengthMeters
		if t.Stats.PointCount > maxPoints {
			maxPoints = t.Stats.PointCount
		}
	}
	for eventType, n := range byType {
		log.Printf("  %s: %d tracks", eventType, n)
	}
	log.Printf("  total length: %.1f km, longest track: %d points", totalLength/1000, maxPoints)
}
