package analysis

import (
	"strings"
	"testing"

	"github.com/apex-data/brake.report/internal/config"
)

func TestGenerateInsightsAllRulesFire(t *testing.T) {
	cfg := config.DefaultTuning()
	sum := LapSummary{
		AvgBrakePeak:    85,  // > 80
		AvgABSRatio:     0.4, // > 0.3
		AvgTrailRatio:   0.6, // > 0.5
		BrakeEfficiency: 35,  // > 30
		Zones: []ZoneReport{
			{ZoneMetrics: ZoneMetrics{Corner: 0, ABSRatio: 0.5, TrailRatio: 0.2}},
		},
	}

	got := GenerateInsights(sum, cfg)
	if len(got) != 6 {
		t.Fatalf("got %d insights, want 6: %+v", len(got), got)
	}

	// Lap rules in declaration order, then zone rules per zone.
	wantTypes := []InsightType{
		InsightWarning, InsightImprovement, InsightSuccess,
		InsightImprovement, InsightWarning, InsightImprovement,
	}
	for i, w := range wantTypes {
		if got[i].Type != w {
			t.Errorf("insight[%d].Type = %q, want %q (%s)", i, got[i].Type, w, got[i].Message)
		}
	}
	if got[0].Priority != PriorityHigh {
		t.Errorf("heavy braking priority = %q, want high", got[0].Priority)
	}
	if !strings.Contains(got[4].Message, "Corner 1") {
		t.Errorf("zone insight should name the corner, got %q", got[4].Message)
	}
}

func TestGenerateInsightsFallback(t *testing.T) {
	cfg := config.DefaultTuning()
	sum := LapSummary{
		AvgBrakePeak:    60,
		AvgABSRatio:     0.1,
		AvgTrailRatio:   0.4,
		BrakeEfficiency: 20,
		Zones: []ZoneReport{
			{ZoneMetrics: ZoneMetrics{Corner: 0, ABSRatio: 0.1, TrailRatio: 0.35}},
		},
	}

	got := GenerateInsights(sum, cfg)
	if len(got) != 1 {
		t.Fatalf("got %d insights, want single fallback: %+v", len(got), got)
	}
	if got[0].Type != InsightSuccess || got[0].Priority != PriorityLow {
		t.Errorf("fallback = %+v, want success/low", got[0])
	}
}

func TestGenerateInsightsSpeedOnlyLap(t *testing.T) {
	cfg := config.DefaultTuning()
	got := GenerateInsights(LapSummary{SpeedOnly: true}, cfg)
	if len(got) != 1 || got[0].Type != InsightSuccess {
		t.Fatalf("speed-only lap should get only the fallback, got %+v", got)
	}
}

func TestGenerateInsightsDeterministicOrder(t *testing.T) {
	cfg := config.DefaultTuning()
	sum := LapSummary{
		AvgBrakePeak: 85,
		AvgABSRatio:  0.4,
		Zones: []ZoneReport{
			{ZoneMetrics: ZoneMetrics{Corner: 2, TrailRatio: 0.1}},
			{ZoneMetrics: ZoneMetrics{Corner: 5, TrailRatio: 0.1}},
		},
	}

	first := GenerateInsights(sum, cfg)
	for i := 0; i < 10; i++ {
		again := GenerateInsights(sum, cfg)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed", i)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: insight %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}
