// Package store contains the SQLite repositories for track points and
// assembled storm tracks. All SQL lives here; the domain and pipeline layers
// never see database/sql types.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-track-analysis/internal/domain"
)

// ErrNotFound is returned when a requested track does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so that lexicographic comparison of the stored
// strings matches chronological order. RFC3339Nano trims trailing fractional
// zeros, and '.' sorts before 'Z', so trimmed strings break range queries
// within a second. All stored times are UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS track_points (
	event_id      TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	lon           REAL NOT NULL,
	lat           REAL NOT NULL,
	event_time    TEXT NOT NULL,
	magnitude     REAL NOT NULL DEFAULT 0,
	unit          TEXT NOT NULL DEFAULT '',
	severity      TEXT NOT NULL DEFAULT '',
	source_office TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	county        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_track_points_key
	ON track_points(event_type, source_office, event_time);

CREATE TABLE IF NOT EXISTS storm_tracks (
	track_id      TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	source_office TEXT NOT NULL,
	day           TEXT NOT NULL,
	point_count   INTEGER NOT NULL,
	length_m      REAL NOT NULL,
	duration_s    REAL NOT NULL,
	mean_speed_ms REAL NOT NULL,
	max_speed_ms  REAL NOT NULL,
	max_magnitude REAL NOT NULL,
	start_time    TEXT NOT NULL,
	end_time      TEXT NOT NULL,
	points_json   TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_storm_tracks_key
	ON storm_tracks(event_type, source_office, day);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Store wraps the SQLite database holding points and tracks.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// UpsertPoints inserts track points, skipping event IDs already present.
// Deterministic upstream IDs make replays no-ops. Returns the number of rows
// actually inserted.
func (s *Store) UpsertPoints(ctx context.Context, points []domain.TrackPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO track_points
			(event_id, event_type, lon, lat, event_time, magnitude, unit, severity, source_office, state, county)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		res, err := stmt.ExecContext(ctx,
			p.EventID, p.EventType, p.Point[0], p.Point[1],
			p.Time.UTC().Format(timeLayout),
			p.Magnitude, p.Unit, p.Severity, p.SourceOffice, p.State, p.County)
		if err != nil {
			return 0, fmt.Errorf("insert point %s: %w", p.EventID, err)
		}
		if rows, err := res.RowsAffected(); err == nil {
			inserted += int(rows)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// PointsForKey loads every stored point in a track key's group, ordered by
// event time.
func (s *Store) PointsForKey(ctx context.Context, key domain.TrackKey) ([]domain.TrackPoint, error) {
	dayStart, err := time.Parse("2006-01-02", key.Day)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", key.Day, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Points carry the raw office string; keys substitute UNKN for blanks.
	office := key.Office
	if office == "UNKN" {
		office = ""
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_type, lon, lat, event_time, magnitude, unit, severity, source_office, state, county
		FROM track_points
		WHERE event_type = ? AND source_office = ? AND event_time >= ? AND event_time < ?
		ORDER BY event_time`,
		key.EventType, office,
		dayStart.Format(timeLayout), dayEnd.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

// RecentPoints returns up to limit points ordered by event time descending.
func (s *Store) RecentPoints(ctx context.Context, limit int) ([]domain.TrackPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, event_type, lon, lat, event_time, magnitude, unit, severity, source_office, state, county
		FROM track_points ORDER BY event_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent points: %w", err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

func scanPoints(rows *sql.Rows) ([]domain.TrackPoint, error) {
	var out []domain.TrackPoint
	for rows.Next() {
		var p domain.TrackPoint
		var ts string
		if err := rows.Scan(&p.EventID, &p.EventType, &p.Point[0], &p.Point[1], &ts,
			&p.Magnitude, &p.Unit, &p.Severity, &p.SourceOffice, &p.State, &p.County); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse point time %q: %w", ts, err)
		}
		p.Time = t
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceTracksForKey atomically replaces the assembled tracks of one key
// group. Reassembly can merge or re-split tracks, so stale rows for the key
// are deleted rather than left behind.
func (s *Store) ReplaceTracksForKey(ctx context.Context, key domain.TrackKey, tracks []domain.StormTrack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM storm_tracks WHERE event_type = ? AND source_office = ? AND day = ?`,
		key.EventType, key.Office, key.Day); err != nil {
		return fmt.Errorf("delete stale tracks: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	for _, t := range tracks {
		pointsJSON, err := json.Marshal(t.Points)
		if err != nil {
			return fmt.Errorf("marshal points for %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO storm_tracks
				(track_id, event_type, source_office, day, point_count, length_m, duration_s,
				 mean_speed_ms, max_speed_ms, max_magnitude, start_time, end_time, points_json, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(track_id) DO UPDATE SET
				point_count=excluded.point_count, length_m=excluded.length_m,
				duration_s=excluded.duration_s, mean_speed_ms=excluded.mean_speed_ms,
				max_speed_ms=excluded.max_speed_ms, max_magnitude=excluded.max_magnitude,
				start_time=excluded.start_time, end_time=excluded.end_time,
				points_json=excluded.points_json, updated_at=excluded.updated_at`,
			t.ID, t.Key.EventType, t.Key.Office, t.Key.Day,
			t.Stats.PointCount, t.Stats.LengthMeters, t.Stats.Duration.Seconds(),
			t.Stats.MeanSpeed, t.Stats.MaxSpeed, t.Stats.MaxMagnitude,
			t.Stats.Start.UTC().Format(timeLayout),
			t.Stats.End.UTC().Format(timeLayout),
			string(pointsJSON), now); err != nil {
			return fmt.Errorf("insert track %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// TrackFilter narrows ListTracks. Zero values mean no constraint.
type TrackFilter struct {
	EventType string
	Office    string
	Since     time.Time
	Limit     int
}

// ListTracks returns assembled tracks matching the filter, newest first.
func (s *Store) ListTracks(ctx context.Context, f TrackFilter) ([]domain.StormTrack, error) {
	query := `
		SELECT track_id, event_type, source_office, day, point_count, length_m, duration_s,
		       mean_speed_ms, max_speed_ms, max_magnitude, start_time, end_time, points_json
		FROM storm_tracks WHERE 1=1`
	var args []any
	if f.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, f.EventType)
	}
	if f.Office != "" {
		query += " AND source_office = ?"
		args = append(args, f.Office)
	}
	if !f.Since.IsZero() {
		query += " AND start_time >= ?"
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	query += " ORDER BY start_time DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var out []domain.StormTrack
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTrack loads one track by ID.
func (s *Store) GetTrack(ctx context.Context, id string) (domain.StormTrack, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, event_type, source_office, day, point_count, length_m, duration_s,
		       mean_speed_ms, max_speed_ms, max_magnitude, start_time, end_time, points_json
		FROM storm_tracks WHERE track_id = ?`, id)
	if err != nil {
		return domain.StormTrack{}, fmt.Errorf("query track: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.StormTrack{}, err
		}
		return domain.StormTrack{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
	}
	return scanTrack(rows)
}

func scanTrack(rows *sql.Rows) (domain.StormTrack, error) {
	var t domain.StormTrack
	var start, end, pointsJSON string
	var durationSecs float64
	if err := rows.Scan(&t.ID, &t.Key.EventType, &t.Key.Office, &t.Key.Day,
		&t.Stats.PointCount, &t.Stats.LengthMeters, &durationSecs,
		&t.Stats.MeanSpeed, &t.Stats.MaxSpeed, &t.Stats.MaxMagnitude,
		&start, &end, &pointsJSON); err != nil {
		return domain.StormTrack{}, fmt.Errorf("scan track: %w", err)
	}
	t.Stats.Duration = time.Duration(durationSecs * float64(time.Second))

	var err error
	if t.Stats.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return domain.StormTrack{}, fmt.Errorf("parse track start %q: %w", start, err)
	}
	if t.Stats.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return domain.StormTrack{}, fmt.Errorf("parse track end %q: %w", end, err)
	}
	if err := json.Unmarshal([]byte(pointsJSON), &t.Points); err != nil {
		return domain.StormTrack{}, fmt.Errorf("unmarshal points for %s: %w", t.ID, err)
	}
	for _, p := range t.Points {
		t.Line = append(t.Line, p.Point)
	}
	return t, nil
}
