package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apex-data/brake.report/internal/telemetry"
)

// ErrLapNotFound is returned when a lap id has no row in the store.
var ErrLapNotFound = errors.New("lap not found")

// timeFormat is how timestamps are stored; RFC3339 sorts lexically so
// created_at range filters work as plain string comparisons.
const timeFormat = time.RFC3339Nano

// InsertLap stores a lap's metadata and its full sample series in one
// transaction. lap.ID and lap.CreatedAt must already be set.
func (db *DB) InsertLap(lap *telemetry.Lap) error {
	markers, err := json.Marshal(lap.SectorMarkers)
	if err != nil {
		return fmt.Errorf("failed to encode sector markers: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO laps (lap_id, user_id, track, car, lap_time, sector_markers, samples_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lap.ID, lap.UserID, lap.Track, lap.Car, lap.LapTime, string(markers),
		lap.SamplesVersion, lap.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lap: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO lap_samples (lap_id, idx, t, distance, speed, brake, throttle, steer, abs_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, s := range lap.Samples {
		if _, err := stmt.Exec(lap.ID, i, s.Time, s.Distance, s.Speed, s.Brake, s.Throttle, s.Steer, s.ABSActive); err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetLap loads a lap with its full sample series.
func (db *DB) GetLap(lapID string) (*telemetry.Lap, error) {
	var (
		lap        telemetry.Lap
		markers    string
		car        sql.NullString
		createdStr string
	)
	err := db.QueryRow(
		`SELECT lap_id, user_id, track, car, lap_time, sector_markers, samples_version, created_at
		 FROM laps WHERE lap_id = ?`, lapID,
	).Scan(&lap.ID, &lap.UserID, &lap.Track, &car, &lap.LapTime, &markers, &lap.SamplesVersion, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLapNotFound
	}
	if err != nil {
		return nil, err
	}
	lap.Car = car.String
	if markers != "" {
		if err := json.Unmarshal([]byte(markers), &lap.SectorMarkers); err != nil {
			return nil, fmt.Errorf("failed to decode sector markers: %w", err)
		}
	}
	if t, err := time.Parse(timeFormat, createdStr); err == nil {
		lap.CreatedAt = t
	}

	rows, err := db.Query(
		`SELECT t, distance, speed, brake, throttle, steer, abs_active
		 FROM lap_samples WHERE lap_id = ? ORDER BY idx`, lapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s telemetry.Sample
		if err := rows.Scan(&s.Time, &s.Distance, &s.Speed, &s.Brake, &s.Throttle, &s.Steer, &s.ABSActive); err != nil {
			return nil, err
		}
		lap.Samples = append(lap.Samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &lap, nil
}

// ReplaceLapSamples swaps a lap's sample series for a new one and bumps
// the samples version, so cached summaries keyed on the old version are
// never served again.
func (db *DB) ReplaceLapSamples(lapID string, samples []telemetry.Sample) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRow(`SELECT samples_version FROM laps WHERE lap_id = ?`, lapID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrLapNotFound
	}
	if err != nil {
		return 0, err
	}
	version++

	if _, err := tx.Exec(`DELETE FROM lap_samples WHERE lap_id = ?`, lapID); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO lap_samples (lap_id, idx, t, distance, speed, brake, throttle, steer, abs_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, s := range samples {
		if _, err := stmt.Exec(lapID, i, s.Time, s.Distance, s.Speed, s.Brake, s.Throttle, s.Steer, s.ABSActive); err != nil {
			return 0, fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}
	if _, err := tx.Exec(`UPDATE laps SET samples_version = ? WHERE lap_id = ?`, version, lapID); err != nil {
		return 0, err
	}

	return version, tx.Commit()
}

// LapSummaryRow is the persisted lap-level aggregate used by the overview
// and trend queries. SummaryJSON holds the full analysis payload.
type LapSummaryRow struct {
	LapID           string
	UserID          string
	Track           string
	LapTime         float64
	OverallScore    float64
	BrakeEfficiency float64
	AvgSpeed        float64
	MaxSpeed        float64
	SummaryJSON     string
	CreatedAt       time.Time
}

// SaveLapSummary inserts or replaces the stored aggregate of a lap.
func (db *DB) SaveLapSummary(row LapSummaryRow) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO lap_summaries
		 (lap_id, user_id, track, lap_time, overall_score, brake_efficiency, avg_speed, max_speed, summary_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.LapID, row.UserID, row.Track, row.LapTime, row.OverallScore,
		row.BrakeEfficiency, row.AvgSpeed, row.MaxSpeed, row.SummaryJSON,
		row.CreatedAt.UTC().Format(timeFormat),
	)
	return err
}

// ListLapSummaries returns a user's stored summaries created at or after
// since, oldest first. track filters when non-empty.
func (db *DB) ListLapSummaries(userID, track string, since time.Time) ([]LapSummaryRow, error) {
	cutoff := since.UTC().Format(timeFormat)

	query := `SELECT lap_id, user_id, track, lap_time, overall_score, brake_efficiency,
	                 avg_speed, max_speed, summary_json, created_at
	          FROM lap_summaries WHERE user_id = ? AND created_at >= ?`
	args := []any{userID, cutoff}
	if track != "" {
		query += ` AND track = ?`
		args = append(args, track)
	}
	query += ` ORDER BY created_at ASC, lap_id ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LapSummaryRow
	for rows.Next() {
		var (
			r          LapSummaryRow
			createdStr string
		)
		if err := rows.Scan(&r.LapID, &r.UserID, &r.Track, &r.LapTime, &r.OverallScore,
			&r.BrakeEfficiency, &r.AvgSpeed, &r.MaxSpeed, &r.SummaryJSON, &createdStr); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeFormat, createdStr); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// UserHasLaps reports whether any lap exists for the user.
func (db *DB) UserHasLaps(userID string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM laps WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
