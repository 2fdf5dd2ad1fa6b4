package db

import (
	"time"

	"github.com/apex-data/brake.report/internal/analysis"
)

// InsertBenchmarks appends a lap's leaderboard entries, one per zone.
// Entries are append-only; a resubmitted lap with a new id adds a fresh
// set rather than mutating old rows.
func (db *DB) InsertBenchmarks(entries []analysis.BenchmarkEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO brake_benchmarks
		 (lap_id, user_id, track, corner, brake_peak, decel_avg, trail_ratio, abs_ratio, score, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.LapID, e.UserID, e.Track, e.Corner,
			e.BrakePeak, e.DecelAvg, e.TrailRatio, e.ABSRatio, e.Score,
			e.SubmittedAt.UTC().Format(timeFormat)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBenchmarks returns the benchmark population for a track, unranked.
// corner filters to one corner when >= 0.
func (db *DB) ListBenchmarks(track string, corner int) ([]analysis.BenchmarkEntry, error) {
	query := `SELECT lap_id, user_id, track, corner, brake_peak, decel_avg, trail_ratio, abs_ratio, score, submitted_at
	          FROM brake_benchmarks WHERE track = ?`
	args := []any{track}
	if corner >= 0 {
		query += ` AND corner = ?`
		args = append(args, corner)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.BenchmarkEntry
	for rows.Next() {
		var (
			e            analysis.BenchmarkEntry
			submittedStr string
		)
		if err := rows.Scan(&e.LapID, &e.UserID, &e.Track, &e.Corner,
			&e.BrakePeak, &e.DecelAvg, &e.TrailRatio, &e.ABSRatio, &e.Score, &submittedStr); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeFormat, submittedStr); err == nil {
			e.SubmittedAt = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// TrackExists reports whether any benchmark row references the track.
func (db *DB) TrackExists(track string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM brake_benchmarks WHERE track = ?`, track).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
