package db

import (
	"path/filepath"
	"testing"
)

func TestMigrateUpDown(t *testing.T) {
	database, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := database.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}

	latest, err := GetLatestMigrationVersion()
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion() error = %v", err)
	}
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion() error = %v", err)
	}
	if dirty {
		t.Error("database dirty after clean migration")
	}
	if version != latest {
		t.Errorf("version = %d, want latest %d", version, latest)
	}

	// Schema is actually usable after migrating.
	if _, err := database.Exec(`INSERT INTO laps (lap_id, user_id, track, lap_time, created_at) VALUES ('l1', 'u1', 'spa', 90, '2026-04-02T00:00:00Z')`); err != nil {
		t.Errorf("insert into migrated schema failed: %v", err)
	}

	if err := database.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	version, _, err = database.MigrateVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != latest-1 {
		t.Errorf("version after down = %d, want %d", version, latest-1)
	}
}

func TestMigrateUpIdempotent(t *testing.T) {
	database, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := database.MigrateUp(); err != nil {
		t.Fatal(err)
	}
	if err := database.MigrateUp(); err != nil {
		t.Errorf("second MigrateUp() error = %v, want nil (no change)", err)
	}
}

func TestCheckMigrations(t *testing.T) {
	database, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := database.CheckMigrations(); err == nil {
		t.Error("CheckMigrations() = nil on unmigrated database, want error")
	}

	if err := database.MigrateUp(); err != nil {
		t.Fatal(err)
	}
	if err := database.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v after MigrateUp", err)
	}
}
