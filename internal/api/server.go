package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/apex-data/brake.report/internal/analysis"
	"github.com/apex-data/brake.report/internal/db"
	"github.com/apex-data/brake.report/internal/timeutil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db       *db.DB
	pipeline *analysis.Pipeline
	units    string
	clock    timeutil.Clock
}

func NewServer(database *db.DB, pipeline *analysis.Pipeline, units string) *Server {
	return &Server{
		db:       database,
		pipeline: pipeline,
		units:    units,
		clock:    timeutil.RealClock{},
	}
}

// WithClock swaps the server's clock. Tests use this to pin the day-window
// cutoffs.
func (s *Server) WithClock(c timeutil.Clock) *Server {
	s.clock = c
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/overview/", s.dashboardOverview)
	mux.HandleFunc("/api/dashboard/laps/", s.lapDetail)
	mux.HandleFunc("/api/braking/analysis/", s.brakingAnalysis)
	mux.HandleFunc("/api/braking/comparison/", s.brakingComparison)
	mux.HandleFunc("/api/braking/leaderboard/", s.brakingLeaderboard)
	mux.HandleFunc("/api/laps", s.submitLap)
	mux.HandleFunc("/api/laps/", s.lapChart)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// parseDays reads the days query parameter, defaulting to 30. Returns
// ok=false after writing a 400 when the value is not a positive integer.
func (s *Server) parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		parsedDays, err := strconv.Atoi(d)
		if err != nil || parsedDays < 1 {
			writeJSONError(w, http.StatusBadRequest, "Invalid 'days' parameter")
			return 0, false
		}
		days = parsedDays
	}
	return days, true
}

func (s *Server) windowStart(days int) time.Time {
	return s.clock.Now().UTC().AddDate(0, 0, -days)
}
