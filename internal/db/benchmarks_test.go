package db

import (
	"testing"
	"time"

	"github.com/apex-data/brake.report/internal/analysis"
)

func TestInsertAndListBenchmarks(t *testing.T) {
	database := newTestDB(t)
	t0 := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)

	entries := []analysis.BenchmarkEntry{
		{LapID: "lap-1", UserID: "driver-1", Track: "spa", Corner: 0, BrakePeak: 80, DecelAvg: 9, TrailRatio: 0.5, ABSRatio: 0.1, Score: 70, SubmittedAt: t0},
		{LapID: "lap-1", UserID: "driver-1", Track: "spa", Corner: 1, BrakePeak: 60, Score: 55, SubmittedAt: t0},
		{LapID: "lap-2", UserID: "driver-2", Track: "monza", Corner: 0, BrakePeak: 95, Score: 80, SubmittedAt: t0.Add(time.Hour)},
	}
	if err := database.InsertBenchmarks(entries); err != nil {
		t.Fatalf("InsertBenchmarks() error = %v", err)
	}

	spa, err := database.ListBenchmarks("spa", -1)
	if err != nil {
		t.Fatalf("ListBenchmarks() error = %v", err)
	}
	if len(spa) != 2 {
		t.Fatalf("got %d spa entries, want 2", len(spa))
	}

	corner0, err := database.ListBenchmarks("spa", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(corner0) != 1 {
		t.Fatalf("got %d corner-0 entries, want 1", len(corner0))
	}
	e := corner0[0]
	if e.LapID != "lap-1" || e.BrakePeak != 80 || e.Score != 70 {
		t.Errorf("entry = %+v, want lap-1 peak 80 score 70", e)
	}
	if !e.SubmittedAt.Equal(t0) {
		t.Errorf("SubmittedAt = %v, want %v", e.SubmittedAt, t0)
	}
}

func TestInsertBenchmarksEmpty(t *testing.T) {
	database := newTestDB(t)
	if err := database.InsertBenchmarks(nil); err != nil {
		t.Errorf("InsertBenchmarks(nil) error = %v", err)
	}
}

func TestTrackExists(t *testing.T) {
	database := newTestDB(t)

	ok, err := database.TrackExists("spa")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("TrackExists() = true for empty store")
	}

	err = database.InsertBenchmarks([]analysis.BenchmarkEntry{
		{LapID: "lap-1", UserID: "driver-1", Track: "spa", SubmittedAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatal(err)
	}

	ok, err = database.TrackExists("spa")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("TrackExists() = false after insert")
	}
}
