package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const defaultTrackMapPoints = 2000

// handleTrackMap renders a quick scatter plot (HTML) of recent track points
// using go-echarts. This is a debugging-only endpoint; the point colour scale
// follows report magnitude.
func (s *Server) handleTrackMap(w http.ResponseWriter, r *http.Request) {
	limit := defaultTrackMapPoints
	if v := r.URL.Query().Get("max_points"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50000 {
			limit = n
		}
	}

	points, err := s.tracks.RecentPoints(r.Context(), limit)
	if err != nil {
		s.logger.Error("load recent points failed", "error", err)
		writeError(w, http.StatusInternalServerError, "load recent points failed")
		return
	}
	if len(points) == 0 {
		writeError(w, http.StatusNotFound, "no track points stored")
		return
	}

	data := make([]opts.ScatterData, 0, len(points))
	maxMag := 0.0
	for _, p := range points {
		if p.Magnitude > maxMag {
			maxMag = p.Magnitude
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.Point[0], p.Point[1], p.Magnitude}})
	}
	if maxMag == 0 {
		maxMag = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Storm Track Points", Theme: "dark", Width: "1200px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Recent Storm Track Points", Subtitle: fmt.Sprintf("points=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxMag),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("reports", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.logger.Error("render track map failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
