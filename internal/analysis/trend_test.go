package analysis

import (
	"math"
	"testing"
)

func lapsWithTimes(times ...float64) []LapSummary {
	out := make([]LapSummary, len(times))
	for i, t := range times {
		out[i] = LapSummary{LapID: string(rune('a' + i)), LapTime: t}
	}
	return out
}

func TestComputeTrendEmpty(t *testing.T) {
	res := ComputeTrend(nil)
	if res.LapCount != 0 {
		t.Errorf("LapCount = %d, want 0", res.LapCount)
	}
	if res.ImprovementRate != nil {
		t.Errorf("ImprovementRate = %v, want nil", *res.ImprovementRate)
	}
	if res.BestLapTime != 0 || res.AverageLapTime != 0 {
		t.Errorf("best/avg = %f/%f, want 0/0", res.BestLapTime, res.AverageLapTime)
	}
}

func TestComputeTrendSingleLap(t *testing.T) {
	res := ComputeTrend(lapsWithTimes(92.5))
	if res.BestLapTime != 92.5 || res.AverageLapTime != 92.5 {
		t.Errorf("best/avg = %f/%f, want 92.5/92.5", res.BestLapTime, res.AverageLapTime)
	}
	if res.ConsistencyScore != 100 {
		t.Errorf("ConsistencyScore = %f, want 100 for a single lap", res.ConsistencyScore)
	}
	if res.ImprovementRate != nil {
		t.Error("ImprovementRate should be nil under 3 laps")
	}
}

func TestComputeTrendTwoLapsNoImprovement(t *testing.T) {
	res := ComputeTrend(lapsWithTimes(100, 90))
	if res.ImprovementRate != nil {
		t.Error("ImprovementRate should be nil under 3 laps")
	}
	// mean 95, population stddev 5, CV 0.0526...
	want := 100 - 5.0/95.0*100
	if math.Abs(res.ConsistencyScore-want) > 1e-9 {
		t.Errorf("ConsistencyScore = %f, want %f", res.ConsistencyScore, want)
	}
}

func TestComputeTrendIdenticalLaps(t *testing.T) {
	res := ComputeTrend(lapsWithTimes(90, 90, 90))
	if res.ConsistencyScore != 100 {
		t.Errorf("ConsistencyScore = %f, want 100 for identical lap times", res.ConsistencyScore)
	}
	if res.ImprovementRate == nil {
		t.Fatal("ImprovementRate nil with 3 laps")
	}
	if *res.ImprovementRate != 0 {
		t.Errorf("ImprovementRate = %f, want 0", *res.ImprovementRate)
	}
}

func TestComputeTrendImproving(t *testing.T) {
	res := ComputeTrend(lapsWithTimes(100, 95, 90))
	if res.BestLapTime != 90 {
		t.Errorf("BestLapTime = %f, want 90", res.BestLapTime)
	}
	if res.ImprovementRate == nil {
		t.Fatal("ImprovementRate nil with 3 laps")
	}
	// earliest third mean 100, latest third mean 90.
	if math.Abs(*res.ImprovementRate-10) > 1e-9 {
		t.Errorf("ImprovementRate = %f, want 10", *res.ImprovementRate)
	}
}

func TestComputeTrendDeclining(t *testing.T) {
	res := ComputeTrend(lapsWithTimes(90, 90, 95, 95, 99, 99))
	if res.ImprovementRate == nil {
		t.Fatal("ImprovementRate nil with 6 laps")
	}
	// earliest third mean 90, latest third mean 99.
	want := (90.0 - 99.0) / 90.0 * 100
	if math.Abs(*res.ImprovementRate-want) > 1e-9 {
		t.Errorf("ImprovementRate = %f, want %f", *res.ImprovementRate, want)
	}
}
