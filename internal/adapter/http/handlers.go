package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/storm-track-analysis/internal/geo"
	"github.com/couchcryptid/storm-track-analysis/internal/network"
	"github.com/couchcryptid/storm-track-analysis/internal/store"
	"github.com/couchcryptid/storm-track-analysis/internal/track"
)

const (
	defaultTrackLimit      = 100
	defaultCentralityLimit = 20
	maxTransformPoints     = 10000
)

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TrackFilter{
		EventType: q.Get("type"),
		Office:    q.Get("office"),
		Limit:     defaultTrackLimit,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, want RFC3339")
			return
		}
		filter.Since = ts
	}

	tracks, err := s.tracks.ListTracks(r.Context(), filter)
	if err != nil {
		s.logger.Error("list tracks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list tracks failed")
		return
	}

	if q.Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, track.ToFeatureCollection(tracks))
		return
	}

	summaries := make([]any, 0, len(tracks))
	for _, t := range tracks {
		summaries = append(summaries, t.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": summaries, "count": len(summaries)})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := s.tracks.GetTrack(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "track not found")
			return
		}
		s.logger.Error("get track failed", "error", err, "track_id", id)
		writeError(w, http.StatusInternalServerError, "get track failed")
		return
	}
	writeJSON(w, http.StatusOK, track.ToFeature(t))
}

func (s *Server) handleNetworkSummary(w http.ResponseWriter, r *http.Request) {
	if s.net == nil {
		writeError(w, http.StatusServiceUnavailable, "no network loaded")
		return
	}
	components := s.net.Components()
	largest := 0
	if len(components) > 0 {
		largest = len(components[0])
	}
	stats := s.net.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":              s.net.NodeCount(),
		"edges":              s.net.EdgeCount(),
		"total_length_m":     s.net.TotalLength(),
		"components":         len(components),
		"largest_component":  largest,
		"source_lines":       stats.Lines,
		"dropped_degenerate": stats.DroppedDegenerate,
		"dropped_parallel":   stats.DroppedParallel,
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if s.net == nil {
		writeError(w, http.StatusServiceUnavailable, "no network loaded")
		return
	}

	from, err := pointParam(r, "from_lon", "from_lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := pointParam(r, "to_lon", "to_lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	route, fromSnap, toSnap, err := s.net.RouteBetween(from, to)
	s.metrics.RouteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, network.ErrNoRoute) {
			s.metrics.RouteRequests.WithLabelValues("no_route").Inc()
			writeError(w, http.StatusNotFound, "no route between the given points")
			return
		}
		s.metrics.RouteRequests.WithLabelValues("error").Inc()
		s.logger.Error("route failed", "error", err)
		writeError(w, http.StatusInternalServerError, "route failed")
		return
	}
	s.metrics.RouteRequests.WithLabelValues("success").Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"route":       network.RouteFeature(route),
		"from_snap_m": fromSnap,
		"to_snap_m":   toSnap,
	})
}

func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	if s.net == nil {
		writeError(w, http.StatusServiceUnavailable, "no network loaded")
		return
	}

	measure := r.URL.Query().Get("measure")
	if measure == "" {
		measure = network.CentralityBetweenness
	}
	top := defaultCentralityLimit
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid top")
			return
		}
		top = n
	}

	scores, err := s.net.TopCentrality(measure, top)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.CentralityRequests.WithLabelValues(measure).Inc()

	writeJSON(w, http.StatusOK, network.CentralityFeatureCollection(measure, scores))
}

func (s *Server) handleCRS(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid EPSG code")
		return
	}
	crs, err := geo.LookupEPSG(code)
	if err != nil {
		if errors.Is(err, geo.ErrUnknownCRS) {
			writeError(w, http.StatusNotFound, "unknown EPSG code")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code":  crs.Code,
		"name":  crs.Name,
		"kind":  crs.Kind.String(),
		"unit":  crs.Unit,
		"wkt":   crs.WKT(),
		"proj4": crs.Proj4(),
	})
}

type transformRequest struct {
	From   int          `json:"from"`
	To     int          `json:"to"`
	Points [][2]float64 `json:"points"`
}

func (s *Server) handleCRSTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Points) == 0 {
		writeError(w, http.StatusBadRequest, "points is required")
		return
	}
	if len(req.Points) > maxTransformPoints {
		writeError(w, http.StatusBadRequest, "too many points")
		return
	}

	from, err := geo.LookupEPSG(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown source EPSG code")
		return
	}
	to, err := geo.LookupEPSG(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown target EPSG code")
		return
	}

	pts := make([]orb.Point, len(req.Points))
	for i, p := range req.Points {
		pts[i] = orb.Point{p[0], p[1]}
	}
	out, err := geo.TransformAll(from, to, pts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := make([][2]float64, len(out))
	for i, p := range out {
		result[i] = [2]float64{p[0], p[1]}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":   from.Code,
		"to":     to.Code,
		"points": result,
	})
}

func pointParam(r *http.Request, lonKey, latKey string) (orb.Point, error) {
	lon, err := strconv.ParseFloat(r.URL.Query().Get(lonKey), 64)
	if err != nil {
		return orb.Point{}, errors.New("invalid or missing " + lonKey)
	}
	lat, err := strconv.ParseFloat(r.URL.Query().Get(latKey), 64)
	if err != nil {
		return orb.Point{}, errors.New("invalid or missing " + latKey)
	}
	return orb.Point{lon, lat}, nil
}
