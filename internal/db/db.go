package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

type DB struct {
	*sql.DB
}

// NewDB opens the lap store and ensures the schema exists.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS laps (
			lap_id            TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			track             TEXT NOT NULL,
			car               TEXT,
			lap_time          DOUBLE NOT NULL,
			sector_markers    TEXT,
			samples_version   BIGINT NOT NULL DEFAULT 1,
			created_at        TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS lap_samples (
			lap_id            TEXT NOT NULL,
			idx               BIGINT NOT NULL,
			t                 DOUBLE,
			distance          DOUBLE,
			speed             DOUBLE,
			brake             DOUBLE,
			throttle          DOUBLE,
			steer             DOUBLE,
			abs_active        INTEGER,
			PRIMARY KEY (lap_id, idx),
			FOREIGN KEY(lap_id) REFERENCES laps(lap_id)
		);
		CREATE TABLE IF NOT EXISTS lap_summaries (
			lap_id            TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			track             TEXT NOT NULL,
			lap_time          DOUBLE NOT NULL,
			overall_score     DOUBLE,
			brake_efficiency  DOUBLE,
			avg_speed         DOUBLE,
			max_speed         DOUBLE,
			summary_json      TEXT,
			created_at        TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS brake_benchmarks (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			lap_id            TEXT NOT NULL,
			user_id           TEXT NOT NULL,
			track             TEXT NOT NULL,
			corner            BIGINT NOT NULL,
			brake_peak        DOUBLE,
			decel_avg         DOUBLE,
			trail_ratio       DOUBLE,
			abs_ratio         DOUBLE,
			score             DOUBLE,
			submitted_at      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_summaries_user ON lap_summaries(user_id, track, created_at);
		CREATE INDEX IF NOT EXISTS idx_benchmarks_track ON brake_benchmarks(track, corner);
	`)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// OpenDB opens the database without touching the schema. Used by the
// migrate subcommand, which manages the schema itself.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://laps.db", db.DB, &tailsql.DBOptions{
		Label: "Lap DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := gzipWriter.Write([]byte{}); err != nil {
			// Need to write something to initialize the gzip header
			http.Error(w, fmt.Sprintf("Failed to initialize gzip writer: %v", err), http.StatusInternalServerError)
			return
		}

		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
