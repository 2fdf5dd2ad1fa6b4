package analysis

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/apex-data/brake.report/internal/fsutil"
	"github.com/apex-data/brake.report/internal/security"
	"github.com/apex-data/brake.report/internal/telemetry"
)

// Exporter writes lap reports to files under a single base directory.
// File names embed the lap ID, so arbitrary IDs are sanitized and the final
// path is validated to stay inside the base directory.
type Exporter struct {
	fs      fsutil.FileSystem
	baseDir string
}

// NewExporter returns an Exporter writing to baseDir on the real filesystem.
func NewExporter(baseDir string) *Exporter {
	return &Exporter{fs: fsutil.OSFileSystem{}, baseDir: baseDir}
}

// WithFileSystem swaps the backing filesystem. Tests use this with a
// MemoryFileSystem.
func (e *Exporter) WithFileSystem(fs fsutil.FileSystem) *Exporter {
	e.fs = fs
	return e
}

// safePath builds the output path for name under the base directory and
// rejects anything that would escape it.
func (e *Exporter) safePath(name string) (string, error) {
	if e.baseDir == "" {
		return "", fmt.Errorf("export base directory not configured")
	}
	path := filepath.Join(e.baseDir, name)
	if err := security.ValidatePathWithinDirectory(path, e.baseDir); err != nil {
		return "", fmt.Errorf("invalid export path: %w", err)
	}
	return path, nil
}

// exportPayload is the JSON document written by WriteSummaryJSON.
type exportPayload struct {
	LapID   string     `json:"lap_id"`
	UserID  string     `json:"user_id"`
	Track   string     `json:"track"`
	Car     string     `json:"car,omitempty"`
	Summary LapSummary `json:"summary"`
}

// WriteSummaryJSON writes the analyzed summary for a lap as a JSON file and
// returns the path written.
func (e *Exporter) WriteSummaryJSON(lap *telemetry.Lap, sum *LapSummary) (string, error) {
	if err := e.fs.MkdirAll(e.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path, err := e.safePath(fmt.Sprintf("lap_%s_summary.json", security.SanitizeFilename(lap.ID)))
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(exportPayload{
		LapID:   lap.ID,
		UserID:  lap.UserID,
		Track:   lap.Track,
		Car:     lap.Car,
		Summary: *sum,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := e.fs.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteZonesCSV writes the per-zone metrics for a lap as a CSV file and
// returns the path written. Laps without brake zones produce a header-only
// file.
func (e *Exporter) WriteZonesCSV(lap *telemetry.Lap, sum *LapSummary) (string, error) {
	if err := e.fs.MkdirAll(e.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	path, err := e.safePath(fmt.Sprintf("lap_%s_zones.csv", security.SanitizeFilename(lap.ID)))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"corner", "start_time_s", "end_time_s", "brake_peak_pct", "decel_avg_mps2",
		"trail_ratio", "abs_ratio", "entry_speed_mps", "exit_speed_mps",
		"efficiency", "smoothness", "aggressiveness",
	}); err != nil {
		return "", err
	}
	for _, z := range sum.Zones {
		if err := w.Write([]string{
			strconv.Itoa(z.Corner),
			formatFloat(z.StartTime),
			formatFloat(z.EndTime),
			formatFloat(z.BrakePeak),
			formatFloat(z.DecelAvg),
			formatFloat(z.TrailRatio),
			formatFloat(z.ABSRatio),
			formatFloat(z.EntrySpeed),
			formatFloat(z.ExitSpeed),
			formatFloat(z.Efficiency),
			formatFloat(z.Smoothness),
			formatFloat(z.Aggressiveness),
		}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if err := e.fs.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
