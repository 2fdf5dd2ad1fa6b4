// Package analysis derives braking metrics from validated lap telemetry.
// Everything in this package is a pure function of its inputs plus the
// tuning config; the same samples always produce the same numbers.
package analysis

import (
	"math"

	"github.com/apex-data/brake.report/internal/config"
	"github.com/apex-data/brake.report/internal/telemetry"
)

// ZoneMetrics holds the derived metrics of one brake zone.
type ZoneMetrics struct {
	Corner        int     `json:"corner"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	StartDistance float64 `json:"start_distance_m"`
	EndDistance   float64 `json:"end_distance_m"`
	Duration      float64 `json:"duration_s"`
	EntrySpeed    float64 `json:"entry_speed_mps"`
	ExitSpeed     float64 `json:"exit_speed_mps"`
	BrakePeak     float64 `json:"brake_peak_pct"`
	DecelAvg      float64 `json:"decel_avg_mps2"`
	TrailRatio    float64 `json:"trail_braking_ratio"`
	ABSRatio      float64 `json:"abs_on_ratio"`

	// InsufficientSamples is set when the zone had fewer than two samples
	// or zero duration, in which case DecelAvg is reported as 0.
	InsufficientSamples bool `json:"insufficient_samples,omitempty"`
}

// AnalyzeZone computes the metrics of a single brake zone. samples is the
// contiguous sub-sequence of the lap covered by the zone; corner is the
// sector the zone starts in.
func AnalyzeZone(samples []telemetry.Sample, corner int, cfg *config.TuningConfig) ZoneMetrics {
	m := ZoneMetrics{Corner: corner}
	if len(samples) == 0 {
		m.InsufficientSamples = true
		return m
	}

	first, last := samples[0], samples[len(samples)-1]
	m.StartTime = first.Time
	m.EndTime = last.Time
	m.StartDistance = first.Distance
	m.EndDistance = last.Distance
	m.Duration = last.Time - first.Time
	m.EntrySpeed = first.Speed
	m.ExitSpeed = last.Speed

	for _, s := range samples {
		if s.Brake > m.BrakePeak {
			m.BrakePeak = s.Brake
		}
	}

	if len(samples) < 2 || m.Duration <= 0 {
		m.InsufficientSamples = true
		return m
	}

	m.DecelAvg = (first.Speed - last.Speed) / m.Duration

	// Ratios are time-weighted: each inter-sample interval is attributed
	// the state of its leading sample.
	brakeOff := cfg.GetBrakeOffPct()
	steerOn := cfg.GetTrailSteerDeg()
	var trailTime, absTime float64
	for i := 0; i < len(samples)-1; i++ {
		dt := samples[i+1].Time - samples[i].Time
		s := samples[i]
		if s.Brake >= brakeOff && math.Abs(s.Steer) >= steerOn {
			trailTime += dt
		}
		if s.ABSActive {
			absTime += dt
		}
	}
	m.TrailRatio = clamp01(trailTime / m.Duration)
	m.ABSRatio = clamp01(absTime / m.Duration)
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
