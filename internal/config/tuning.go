// Package config holds the tunable thresholds and weights of the braking
// analysis pipeline. None of the numeric constants in the analysis are
// hard-coded: they all resolve through TuningConfig so deployments can
// override them from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// TuningConfig is the root configuration for analysis parameters. Fields are
// pointers so a partial JSON file overrides only what it names; the Get*
// accessors supply the documented defaults for everything else.
type TuningConfig struct {
	// Brake-zone detection (hysteresis)
	BrakeOnPct       *float64 `json:"brake_on_pct,omitempty"`
	BrakeOffPct      *float64 `json:"brake_off_pct,omitempty"`
	MinZoneDurationS *float64 `json:"min_zone_duration_s,omitempty"`
	MinOffDwellS     *float64 `json:"min_off_dwell_s,omitempty"`

	// Zone metric thresholds
	TrailSteerDeg *float64 `json:"trail_steer_deg,omitempty"`

	// Scoring references
	ReferenceSpeedMPS *float64 `json:"reference_speed_mps,omitempty"`
	ReferenceDecelMPS *float64 `json:"reference_decel_mps2,omitempty"`

	// Insight thresholds
	HeavyBrakePeakPct  *float64 `json:"heavy_brake_peak_pct,omitempty"`
	HighABSRatio       *float64 `json:"high_abs_ratio,omitempty"`
	TrailUsageTarget   *float64 `json:"trail_usage_target,omitempty"`
	GoodTrailRatio     *float64 `json:"good_trail_ratio,omitempty"`
	BrakeTimeBudgetPct *float64 `json:"brake_time_budget_pct,omitempty"`
}

// DefaultTuning returns a config with every field at its default. Mostly a
// convenience for tests and the offline report tool.
func DefaultTuning() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuning loads a TuningConfig from a JSON file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func LoadTuning(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate checks internal consistency of any values that are set.
func (c *TuningConfig) Validate() error {
	if c.BrakeOnPct != nil && (*c.BrakeOnPct <= 0 || *c.BrakeOnPct > 100) {
		return fmt.Errorf("brake_on_pct must be in (0,100], got %f", *c.BrakeOnPct)
	}
	if c.BrakeOffPct != nil && *c.BrakeOffPct < 0 {
		return fmt.Errorf("brake_off_pct must be non-negative, got %f", *c.BrakeOffPct)
	}
	if c.BrakeOffPct != nil && *c.BrakeOffPct > c.GetBrakeOnPct() {
		return fmt.Errorf("brake_off_pct (%f) must not exceed brake_on_pct (%f)",
			*c.BrakeOffPct, c.GetBrakeOnPct())
	}
	if c.MinZoneDurationS != nil && *c.MinZoneDurationS < 0 {
		return fmt.Errorf("min_zone_duration_s must be non-negative, got %f", *c.MinZoneDurationS)
	}
	if c.MinOffDwellS != nil && *c.MinOffDwellS < 0 {
		return fmt.Errorf("min_off_dwell_s must be non-negative, got %f", *c.MinOffDwellS)
	}
	if c.ReferenceSpeedMPS != nil && *c.ReferenceSpeedMPS <= 0 {
		return fmt.Errorf("reference_speed_mps must be positive, got %f", *c.ReferenceSpeedMPS)
	}
	if c.ReferenceDecelMPS != nil && *c.ReferenceDecelMPS <= 0 {
		return fmt.Errorf("reference_decel_mps2 must be positive, got %f", *c.ReferenceDecelMPS)
	}
	return nil
}

// GetBrakeOnPct returns the pedal percentage at which a brake zone opens.
func (c *TuningConfig) GetBrakeOnPct() float64 {
	if c.BrakeOnPct == nil {
		return 5.0
	}
	return *c.BrakeOnPct
}

// GetBrakeOffPct returns the pedal percentage below which a zone may close.
func (c *TuningConfig) GetBrakeOffPct() float64 {
	if c.BrakeOffPct == nil {
		return 1.0
	}
	return *c.BrakeOffPct
}

// GetMinZoneDurationS returns the minimum duration of a kept zone.
func (c *TuningConfig) GetMinZoneDurationS() float64 {
	if c.MinZoneDurationS == nil {
		return 0.1
	}
	return *c.MinZoneDurationS
}

// GetMinOffDwellS returns how long the brake must stay released before a
// zone closes (and before a new one may open).
func (c *TuningConfig) GetMinOffDwellS() float64 {
	if c.MinOffDwellS == nil {
		return 0.1
	}
	return *c.MinOffDwellS
}

// GetTrailSteerDeg returns the steering magnitude above which braking
// counts as trail braking.
func (c *TuningConfig) GetTrailSteerDeg() float64 {
	if c.TrailSteerDeg == nil {
		return 2.0
	}
	return *c.TrailSteerDeg
}

// GetReferenceSpeedMPS returns the speed that maps to 100 on the
// speed-only fallback score used for laps without brake zones.
func (c *TuningConfig) GetReferenceSpeedMPS() float64 {
	if c.ReferenceSpeedMPS == nil {
		return 50.0 // 180 km/h
	}
	return *c.ReferenceSpeedMPS
}

// GetReferenceDecelMPS returns the deceleration treated as full marks when
// normalising zone deceleration.
func (c *TuningConfig) GetReferenceDecelMPS() float64 {
	if c.ReferenceDecelMPS == nil {
		return 10.0 // ~1g
	}
	return *c.ReferenceDecelMPS
}

// GetHeavyBrakePeakPct returns the average brake peak beyond which the
// insight generator flags heavy braking.
func (c *TuningConfig) GetHeavyBrakePeakPct() float64 {
	if c.HeavyBrakePeakPct == nil {
		return 80.0
	}
	return *c.HeavyBrakePeakPct
}

// GetHighABSRatio returns the ABS-on ratio beyond which ABS usage is flagged.
func (c *TuningConfig) GetHighABSRatio() float64 {
	if c.HighABSRatio == nil {
		return 0.3
	}
	return *c.HighABSRatio
}

// GetTrailUsageTarget returns the per-zone trail-braking ratio below which
// an improvement suggestion fires.
func (c *TuningConfig) GetTrailUsageTarget() float64 {
	if c.TrailUsageTarget == nil {
		return 0.3
	}
	return *c.TrailUsageTarget
}

// GetGoodTrailRatio returns the lap-average trail ratio that earns a
// success insight.
func (c *TuningConfig) GetGoodTrailRatio() float64 {
	if c.GoodTrailRatio == nil {
		return 0.5
	}
	return *c.GoodTrailRatio
}

// GetBrakeTimeBudgetPct returns the share of lap time spent braking above
// which the lap is flagged as over-braked.
func (c *TuningConfig) GetBrakeTimeBudgetPct() float64 {
	if c.BrakeTimeBudgetPct == nil {
		return 30.0
	}
	return *c.BrakeTimeBudgetPct
}
