package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/apex-data/brake.report/internal/analysis"
	"github.com/apex-data/brake.report/internal/db"
	"github.com/apex-data/brake.report/internal/httputil"
	"github.com/apex-data/brake.report/internal/monitoring"
	"github.com/apex-data/brake.report/internal/telemetry"
	"github.com/apex-data/brake.report/internal/units"
	"github.com/apex-data/brake.report/internal/version"
)

// requestUnits resolves the speed units for a request: the units query
// parameter when valid, the server default otherwise.
func (s *Server) requestUnits(r *http.Request) string {
	if u := r.URL.Query().Get("units"); u != "" && units.IsValid(u) {
		return u
	}
	return s.units
}

// improvementValue maps a nil improvement rate to the in-payload sentinel.
func improvementValue(rate *float64) any {
	if rate == nil {
		return "insufficient_data"
	}
	return *rate
}

// pathTail returns the path segment after prefix, stripped of any further
// sub-path. ok is false when the segment is empty.
func pathTail(path, prefix string) (string, bool) {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	if i := strings.IndexByte(tail, '/'); i >= 0 {
		tail = tail[:i]
	}
	return tail, tail != ""
}

// recentLap is one row of the overview's recent-laps block.
type recentLap struct {
	LapID           string  `json:"lap_id"`
	Track           string  `json:"track"`
	LapTime         float64 `json:"lap_time_s"`
	OverallScore    float64 `json:"overall_score"`
	BrakeEfficiency float64 `json:"brake_efficiency"`
	AvgSpeed        float64 `json:"avg_speed"`
	MaxSpeed        float64 `json:"max_speed"`
}

func (s *Server) dashboardOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	userID, ok := pathTail(r.URL.Path, "/api/dashboard/overview/")
	if !ok {
		httputil.BadRequest(w, "missing user id")
		return
	}
	days, ok := s.parseDays(w, r)
	if !ok {
		return
	}
	track := r.URL.Query().Get("track")
	unit := s.requestUnits(r)

	rows, err := s.db.ListLapSummaries(userID, track, s.windowStart(days))
	if err != nil {
		monitoring.Logf("overview query failed for user %s: %v", userID, err)
		httputil.InternalServerError(w, "failed to load lap summaries")
		return
	}
	if len(rows) == 0 {
		hasLaps, err := s.db.UserHasLaps(userID)
		if err != nil {
			httputil.InternalServerError(w, "failed to load lap summaries")
			return
		}
		if !hasLaps {
			httputil.NotFound(w, fmt.Sprintf("no laps for user %s", userID))
			return
		}
	}

	summaries := make([]analysis.LapSummary, len(rows))
	for i, row := range rows {
		summaries[i] = analysis.LapSummary{LapID: row.LapID, LapTime: row.LapTime}
	}
	trend := analysis.ComputeTrend(summaries)

	recent := make([]recentLap, 0, 10)
	for i := len(rows) - 1; i >= 0 && len(recent) < 10; i-- {
		row := rows[i]
		recent = append(recent, recentLap{
			LapID:           row.LapID,
			Track:           row.Track,
			LapTime:         row.LapTime,
			OverallScore:    row.OverallScore,
			BrakeEfficiency: row.BrakeEfficiency,
			AvgSpeed:        units.ConvertSpeed(row.AvgSpeed, unit),
			MaxSpeed:        units.ConvertSpeed(row.MaxSpeed, unit),
		})
	}

	// Leaderboard snippet for the requested track, or the latest lap's
	// track when none was given.
	snippetTrack := track
	if snippetTrack == "" && len(rows) > 0 {
		snippetTrack = rows[len(rows)-1].Track
	}
	var snippet []leaderboardEntry
	if snippetTrack != "" {
		entries, err := s.db.ListBenchmarks(snippetTrack, -1)
		if err != nil {
			monitoring.Logf("leaderboard snippet failed for track %s: %v", snippetTrack, err)
		} else {
			ranked := analysis.Rank(entries)
			if len(ranked) > 5 {
				ranked = ranked[:5]
			}
			snippet = rankedEntries(ranked, entries)
		}
	}

	var avgScore float64
	for _, row := range rows {
		avgScore += row.OverallScore
	}
	if len(rows) > 0 {
		avgScore /= float64(len(rows))
	}

	httputil.WriteJSONOK(w, map[string]any{
		"user_id": userID,
		"track":   track,
		"days":    days,
		"units":   unit,
		"performance_metrics": map[string]any{
			"total_laps":        trend.LapCount,
			"best_lap_time":     trend.BestLapTime,
			"average_lap_time":  trend.AverageLapTime,
			"consistency_score": trend.ConsistencyScore,
			"improvement_rate":  improvementValue(trend.ImprovementRate),
			"average_score":     avgScore,
		},
		"recent_laps": recent,
		"leaderboard": snippet,
	})
}

func (s *Server) lapDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	lapID, ok := pathTail(r.URL.Path, "/api/dashboard/laps/")
	if !ok {
		httputil.BadRequest(w, "missing lap id")
		return
	}
	unit := s.requestUnits(r)

	lap, sum, ok := s.loadAndAnalyze(w, lapID)
	if !ok {
		return
	}

	insights := analysis.GenerateInsights(*sum, s.pipeline.Config())

	httputil.WriteJSONOK(w, map[string]any{
		"lap": map[string]any{
			"lap_id":     lap.ID,
			"user_id":    lap.UserID,
			"track":      lap.Track,
			"car":        lap.Car,
			"lap_time_s": lap.LapTime,
			"created_at": lap.CreatedAt,
		},
		"units": unit,
		"performance_metrics": map[string]any{
			"overall_score":    sum.OverallScore,
			"brake_efficiency": sum.BrakeEfficiency,
			"avg_speed":        units.ConvertSpeed(sum.AvgSpeed, unit),
			"max_speed":        units.ConvertSpeed(sum.MaxSpeed, unit),
			"speed_only_score": sum.SpeedOnly,
		},
		"sector_analysis":    sum.Sectors,
		"braking_analysis":   s.convertZones(sum.Zones, unit),
		"visualization_data": visualizationData(lap, sum),
		"insights":           insights,
	})
}

func (s *Server) brakingAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	lapID, ok := pathTail(r.URL.Path, "/api/braking/analysis/")
	if !ok {
		httputil.BadRequest(w, "missing lap id")
		return
	}
	unit := s.requestUnits(r)

	lap, sum, ok := s.loadAndAnalyze(w, lapID)
	if !ok {
		return
	}

	// Per-corner comparison against the track population.
	entries, err := s.db.ListBenchmarks(lap.Track, -1)
	if err != nil {
		monitoring.Logf("benchmark query failed for track %s: %v", lap.Track, err)
		httputil.InternalServerError(w, "failed to load benchmarks")
		return
	}
	comparison := make([]map[string]any, 0, len(sum.Zones))
	for _, z := range sum.Zones {
		var cornerPop []analysis.BenchmarkEntry
		for _, e := range entries {
			if e.Corner == z.Corner {
				cornerPop = append(cornerPop, e)
			}
		}
		st := analysis.Stats(cornerPop)
		block := map[string]any{
			"corner":         z.Corner,
			"brake_peak":     z.BrakePeak,
			"decel_avg":      z.DecelAvg,
			"trail_ratio":    z.TrailRatio,
			"abs_ratio":      z.ABSRatio,
			"population":     st,
			"peak_standing":  "insufficient_data",
			"decel_standing": "insufficient_data",
		}
		if st.Count > 0 {
			block["peak_standing"] = analysis.Classify(z.BrakePeak, st.BrakePeakAvg, true)
			block["decel_standing"] = analysis.Classify(z.DecelAvg, st.DecelAvg, true)
		}
		comparison = append(comparison, block)
	}

	httputil.WriteJSONOK(w, map[string]any{
		"lap_id": lap.ID,
		"track":  lap.Track,
		"units":  unit,
		"summary": map[string]any{
			"overall_score":    sum.OverallScore,
			"brake_efficiency": sum.BrakeEfficiency,
			"avg_brake_peak":   sum.AvgBrakePeak,
			"avg_decel":        sum.AvgDecel,
			"avg_trail_ratio":  sum.AvgTrailRatio,
			"avg_abs_ratio":    sum.AvgABSRatio,
		},
		"zones":      s.convertZones(sum.Zones, unit),
		"comparison": comparison,
		"insights":   analysis.GenerateInsights(*sum, s.pipeline.Config()),
	})
}

func (s *Server) brakingComparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	userID, ok := pathTail(r.URL.Path, "/api/braking/comparison/")
	if !ok {
		httputil.BadRequest(w, "missing user id")
		return
	}
	days, ok := s.parseDays(w, r)
	if !ok {
		return
	}
	track := r.URL.Query().Get("track")

	rows, err := s.db.ListLapSummaries(userID, track, s.windowStart(days))
	if err != nil {
		httputil.InternalServerError(w, "failed to load lap summaries")
		return
	}
	if len(rows) == 0 {
		hasLaps, err := s.db.UserHasLaps(userID)
		if err != nil {
			httputil.InternalServerError(w, "failed to load lap summaries")
			return
		}
		if !hasLaps {
			httputil.NotFound(w, fmt.Sprintf("no laps for user %s", userID))
			return
		}
	}

	// User averages over the stored summaries in the window.
	var peak, decel, trail, abs float64
	var zoned int
	summaries := make([]analysis.LapSummary, 0, len(rows))
	for _, row := range rows {
		var sum analysis.LapSummary
		if err := json.Unmarshal([]byte(row.SummaryJSON), &sum); err != nil {
			continue
		}
		summaries = append(summaries, sum)
		if !sum.SpeedOnly {
			peak += sum.AvgBrakePeak
			decel += sum.AvgDecel
			trail += sum.AvgTrailRatio
			abs += sum.AvgABSRatio
			zoned++
		}
	}
	userStats := map[string]any{"laps": len(rows)}
	if zoned > 0 {
		n := float64(zoned)
		userStats["avg_brake_peak"] = peak / n
		userStats["avg_decel"] = decel / n
		userStats["avg_trail_ratio"] = trail / n
		userStats["avg_abs_ratio"] = abs / n
	}

	// Population stats for the track, with standing classification.
	comparisonTrack := track
	if comparisonTrack == "" && len(rows) > 0 {
		comparisonTrack = rows[len(rows)-1].Track
	}
	var population analysis.PopulationStats
	comparison := map[string]any{
		"peak_standing":  "insufficient_data",
		"decel_standing": "insufficient_data",
	}
	if comparisonTrack != "" {
		entries, err := s.db.ListBenchmarks(comparisonTrack, -1)
		if err == nil {
			population = analysis.Stats(entries)
			if population.Count > 0 && zoned > 0 {
				comparison["peak_standing"] = analysis.Classify(peak/float64(zoned), population.BrakePeakAvg, true)
				comparison["decel_standing"] = analysis.Classify(decel/float64(zoned), population.DecelAvg, true)
			}
		}
	}

	trend := analysis.ComputeTrend(summaries)
	trendClass := "insufficient_data"
	if trend.ImprovementRate != nil {
		switch {
		case *trend.ImprovementRate > 1:
			trendClass = "improving"
		case *trend.ImprovementRate < -1:
			trendClass = "declining"
		default:
			trendClass = "stable"
		}
	}

	httputil.WriteJSONOK(w, map[string]any{
		"user_id":    userID,
		"track":      comparisonTrack,
		"days":       days,
		"user":       userStats,
		"population": population,
		"comparison": comparison,
		"trend": map[string]any{
			"classification":    trendClass,
			"improvement_rate":  improvementValue(trend.ImprovementRate),
			"consistency_score": trend.ConsistencyScore,
		},
	})
}

// leaderboardEntry is one ranked row of the leaderboard payload.
type leaderboardEntry struct {
	Rank       int     `json:"rank"`
	LapID      string  `json:"lap_id"`
	UserID     string  `json:"user_id"`
	Corner     int     `json:"corner"`
	Score      float64 `json:"score"`
	BrakePeak  float64 `json:"brake_peak_pct"`
	DecelAvg   float64 `json:"decel_avg_mps2"`
	TrailRatio float64 `json:"trail_braking_ratio"`
	ABSRatio   float64 `json:"abs_on_ratio"`
	Percentile float64 `json:"percentile"`
}

// rankedEntries decorates ranked benchmark entries with rank and percentile
// against the full population.
func rankedEntries(ranked, population []analysis.BenchmarkEntry) []leaderboardEntry {
	out := make([]leaderboardEntry, 0, len(ranked))
	for i, e := range ranked {
		pct, _ := analysis.Percentile(population, e.LapID)
		out = append(out, leaderboardEntry{
			Rank:       i + 1,
			LapID:      e.LapID,
			UserID:     e.UserID,
			Corner:     e.Corner,
			Score:      e.Score,
			BrakePeak:  e.BrakePeak,
			DecelAvg:   e.DecelAvg,
			TrailRatio: e.TrailRatio,
			ABSRatio:   e.ABSRatio,
			Percentile: pct,
		})
	}
	return out
}

func (s *Server) brakingLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	track, ok := pathTail(r.URL.Path, "/api/braking/leaderboard/")
	if !ok {
		httputil.BadRequest(w, "missing track")
		return
	}

	corner := -1
	if c := r.URL.Query().Get("corner"); c != "" {
		parsed, err := strconv.Atoi(c)
		if err != nil || parsed < 0 {
			httputil.BadRequest(w, "Invalid 'corner' parameter")
			return
		}
		corner = parsed
	}

	entries, err := s.db.ListBenchmarks(track, corner)
	if err != nil {
		monitoring.Logf("leaderboard query failed for track %s: %v", track, err)
		httputil.InternalServerError(w, "failed to load leaderboard")
		return
	}
	if len(entries) == 0 {
		exists, err := s.db.TrackExists(track)
		if err != nil {
			httputil.InternalServerError(w, "failed to load leaderboard")
			return
		}
		if !exists {
			httputil.NotFound(w, fmt.Sprintf("no laps recorded for track %s", track))
			return
		}
	}

	ranked := analysis.Rank(entries)

	httputil.WriteJSONOK(w, map[string]any{
		"track":      track,
		"corner":     corner,
		"entries":    rankedEntries(ranked, entries),
		"statistics": analysis.Stats(entries),
	})
}

// lapSubmission is the POST /api/laps request body.
type lapSubmission struct {
	UserID        string             `json:"user_id"`
	Track         string             `json:"track"`
	Car           string             `json:"car"`
	LapTime       float64            `json:"lap_time_s"`
	SectorMarkers []float64          `json:"sector_markers"`
	Samples       []telemetry.Sample `json:"samples"`
}

func (s *Server) submitLap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var sub lapSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid lap payload: %v", err))
		return
	}
	if sub.UserID == "" || sub.Track == "" {
		httputil.BadRequest(w, "user_id and track are required")
		return
	}
	if err := telemetry.Validate(sub.Samples); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	lap := &telemetry.Lap{
		ID:             uuid.NewString(),
		UserID:         sub.UserID,
		Track:          sub.Track,
		Car:            sub.Car,
		LapTime:        sub.LapTime,
		SectorMarkers:  sub.SectorMarkers,
		Samples:        sub.Samples,
		SamplesVersion: 1,
		CreatedAt:      s.clock.Now().UTC(),
	}

	sum, err := s.pipeline.Analyze(lap)
	if err != nil {
		if errors.Is(err, telemetry.ErrMalformedTelemetry) {
			httputil.BadRequest(w, err.Error())
			return
		}
		monitoring.Logf("analysis failed for submitted lap: %v", err)
		httputil.InternalServerError(w, "failed to analyze lap")
		return
	}

	if err := s.db.InsertLap(lap); err != nil {
		monitoring.Logf("failed to store lap %s: %v", lap.ID, err)
		httputil.InternalServerError(w, "failed to store lap")
		return
	}

	summaryJSON, err := json.Marshal(sum)
	if err != nil {
		httputil.InternalServerError(w, "failed to encode summary")
		return
	}
	if err := s.db.SaveLapSummary(db.LapSummaryRow{
		LapID:           lap.ID,
		UserID:          lap.UserID,
		Track:           lap.Track,
		LapTime:         sum.LapTime,
		OverallScore:    sum.OverallScore,
		BrakeEfficiency: sum.BrakeEfficiency,
		AvgSpeed:        sum.AvgSpeed,
		MaxSpeed:        sum.MaxSpeed,
		SummaryJSON:     string(summaryJSON),
		CreatedAt:       lap.CreatedAt,
	}); err != nil {
		monitoring.Logf("failed to store summary for lap %s: %v", lap.ID, err)
		httputil.InternalServerError(w, "failed to store lap summary")
		return
	}
	if err := s.db.InsertBenchmarks(analysis.BenchmarksFor(lap, sum)); err != nil {
		monitoring.Logf("failed to store benchmarks for lap %s: %v", lap.ID, err)
		httputil.InternalServerError(w, "failed to store benchmarks")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"lap_id":           lap.ID,
		"overall_score":    sum.OverallScore,
		"brake_efficiency": sum.BrakeEfficiency,
		"zones":            len(sum.Zones),
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	cfg := s.pipeline.Config()
	httputil.WriteJSONOK(w, map[string]any{
		"version": version.String(),
		"units":   s.units,
		"tuning": map[string]float64{
			"brake_on_pct":          cfg.GetBrakeOnPct(),
			"brake_off_pct":         cfg.GetBrakeOffPct(),
			"min_zone_duration_s":   cfg.GetMinZoneDurationS(),
			"min_off_dwell_s":       cfg.GetMinOffDwellS(),
			"trail_steer_deg":       cfg.GetTrailSteerDeg(),
			"reference_speed_mps":   cfg.GetReferenceSpeedMPS(),
			"reference_decel_mps2":  cfg.GetReferenceDecelMPS(),
			"heavy_brake_peak_pct":  cfg.GetHeavyBrakePeakPct(),
			"high_abs_ratio":        cfg.GetHighABSRatio(),
			"trail_usage_target":    cfg.GetTrailUsageTarget(),
			"good_trail_ratio":      cfg.GetGoodTrailRatio(),
			"brake_time_budget_pct": cfg.GetBrakeTimeBudgetPct(),
		},
	})
}

// loadAndAnalyze fetches a lap and runs the analysis pipeline, writing the
// error response itself when something goes wrong.
func (s *Server) loadAndAnalyze(w http.ResponseWriter, lapID string) (*telemetry.Lap, *analysis.LapSummary, bool) {
	lap, err := s.db.GetLap(lapID)
	if errors.Is(err, db.ErrLapNotFound) {
		httputil.NotFound(w, fmt.Sprintf("lap %s not found", lapID))
		return nil, nil, false
	}
	if err != nil {
		monitoring.Logf("failed to load lap %s: %v", lapID, err)
		httputil.InternalServerError(w, "failed to load lap")
		return nil, nil, false
	}

	sum, err := s.pipeline.Analyze(lap)
	if err != nil {
		monitoring.Logf("analysis failed for lap %s: %v", lapID, err)
		httputil.InternalServerError(w, "failed to analyze lap")
		return nil, nil, false
	}
	return lap, sum, true
}

// convertZones returns zone reports with speeds converted to the request
// units. The stored reports stay in m/s.
func (s *Server) convertZones(zones []analysis.ZoneReport, unit string) []analysis.ZoneReport {
	out := make([]analysis.ZoneReport, len(zones))
	copy(out, zones)
	for i := range out {
		out[i].EntrySpeed = units.ConvertSpeed(out[i].EntrySpeed, unit)
		out[i].ExitSpeed = units.ConvertSpeed(out[i].ExitSpeed, unit)
	}
	return out
}

// visualizationData flattens the lap trace into parallel arrays for the
// dashboard chart, with the zone ranges alongside.
func visualizationData(lap *telemetry.Lap, sum *analysis.LapSummary) map[string]any {
	n := len(lap.Samples)
	t := make([]float64, n)
	speed := make([]float64, n)
	brake := make([]float64, n)
	throttle := make([]float64, n)
	for i, s := range lap.Samples {
		t[i] = s.Time
		speed[i] = s.Speed
		brake[i] = s.Brake
		throttle[i] = s.Throttle
	}

	zones := make([]map[string]float64, 0, len(sum.Zones))
	for _, z := range sum.Zones {
		zones = append(zones, map[string]float64{
			"start_time": z.StartTime,
			"end_time":   z.EndTime,
		})
	}

	return map[string]any{
		"time":     t,
		"speed":    speed,
		"brake":    brake,
		"throttle": throttle,
		"zones":    zones,
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSONError(w, status, msg)
}
