package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/apex-data/brake.report/internal/httputil"
	"github.com/apex-data/brake.report/internal/units"
)

// lapChart renders an HTML line chart of a lap's speed, brake, and throttle
// traces with the detected brake zones in the subtitle. This is a quick
// debugging view of the telemetry without the dashboard UI.
// Route: GET /api/laps/{lap_id}/chart
func (s *Server) lapChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/laps/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[1] != "chart" || parts[0] == "" {
		httputil.NotFound(w, "not found")
		return
	}
	lapID := parts[0]
	unit := s.requestUnits(r)

	lap, sum, ok := s.loadAndAnalyze(w, lapID)
	if !ok {
		return
	}

	xAxis := make([]string, len(lap.Samples))
	speedData := make([]opts.LineData, len(lap.Samples))
	brakeData := make([]opts.LineData, len(lap.Samples))
	throttleData := make([]opts.LineData, len(lap.Samples))
	for i, sample := range lap.Samples {
		xAxis[i] = fmt.Sprintf("%.1f", sample.Time)
		speedData[i] = opts.LineData{Value: units.ConvertSpeed(sample.Speed, unit)}
		brakeData[i] = opts.LineData{Value: sample.Brake}
		throttleData[i] = opts.LineData{Value: sample.Throttle}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Lap %s", lap.ID),
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s @ %s", lap.UserID, lap.Track),
			Subtitle: fmt.Sprintf("lap_time=%.2fs zones=%d score=%.1f units=%s",
				lap.LapTime, len(sum.Zones), sum.OverallScore, unit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "speed / pedal %"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(xAxis).
		AddSeries("speed", speedData).
		AddSeries("brake", brakeData).
		AddSeries("throttle", throttleData)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
