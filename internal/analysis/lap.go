package analysis

import (
	"github.com/apex-data/brake.report/internal/config"
	"github.com/apex-data/brake.report/internal/telemetry"
)

// ZoneReport is a brake zone's metrics plus its derived performance scores.
type ZoneReport struct {
	ZoneMetrics

	Efficiency     float64 `json:"efficiency"`
	Smoothness     float64 `json:"smoothness"`
	Aggressiveness float64 `json:"aggressiveness"`
}

// SectorSummary aggregates the brake zones starting in one sector of the lap.
type SectorSummary struct {
	Sector           int     `json:"sector"`
	ZoneCount        int     `json:"zone_count"`
	AvgBrakePeak     float64 `json:"avg_brake_peak_pct"`
	AvgDecel         float64 `json:"avg_decel_mps2"`
	TimeSpentBraking float64 `json:"time_spent_braking_s"`
}

// LapSummary is the lap-level aggregate over all brake zones.
type LapSummary struct {
	LapID   string  `json:"lap_id"`
	UserID  string  `json:"user_id"`
	Track   string  `json:"track"`
	Car     string  `json:"car,omitempty"`
	LapTime float64 `json:"lap_time_s"`

	OverallScore    float64 `json:"overall_score"`
	BrakeEfficiency float64 `json:"brake_efficiency"`
	AvgSpeed        float64 `json:"avg_speed_mps"`
	MaxSpeed        float64 `json:"max_speed_mps"`

	AvgBrakePeak  float64 `json:"avg_brake_peak_pct"`
	AvgDecel      float64 `json:"avg_decel_mps2"`
	AvgTrailRatio float64 `json:"avg_trail_ratio"`
	AvgABSRatio   float64 `json:"avg_abs_ratio"`

	Zones   []ZoneReport    `json:"zones"`
	Sectors []SectorSummary `json:"sectors"`

	// SpeedOnly is set when the lap had no brake zones and OverallScore
	// fell back to the speed-based score.
	SpeedOnly bool `json:"speed_only_score,omitempty"`
}

// zoneEfficiency scores how well a zone converts pedal input into
// deceleration. ABS engagement costs points; firm peak pressure above 50%
// earns a bonus capped at 20.
func zoneEfficiency(m ZoneMetrics) float64 {
	bonus := (m.BrakePeak - 50) / 2
	if bonus > 20 {
		bonus = 20
	}
	return clamp100(100 - m.ABSRatio*50 + bonus)
}

// zoneSmoothness penalises ABS engagement and trail braking held past the
// target ratio.
func zoneSmoothness(m ZoneMetrics, cfg *config.TuningConfig) float64 {
	over := m.TrailRatio - cfg.GetGoodTrailRatio()
	if over < 0 {
		over = 0
	}
	return clamp100(100 - m.ABSRatio*30 - over*40)
}

// zoneAggressiveness blends peak pedal pressure with deceleration relative
// to the reference.
func zoneAggressiveness(m ZoneMetrics, cfg *config.TuningConfig) float64 {
	decelPart := m.DecelAvg / cfg.GetReferenceDecelMPS() * 40
	if decelPart > 40 {
		decelPart = 40
	}
	if decelPart < 0 {
		decelPart = 0
	}
	return clamp100(m.BrakePeak*0.6 + decelPart)
}

// AggregateLap rolls zone metrics into a LapSummary. zones must be the
// output of AnalyzeZone over the segmenter's zones, in lap order.
func AggregateLap(lap *telemetry.Lap, zones []ZoneMetrics, cfg *config.TuningConfig) LapSummary {
	sum := LapSummary{
		LapID:   lap.ID,
		UserID:  lap.UserID,
		Track:   lap.Track,
		Car:     lap.Car,
		LapTime: lap.LapTime,
		Zones:   make([]ZoneReport, 0, len(zones)),
		Sectors: []SectorSummary{},
	}
	if sum.LapTime <= 0 {
		sum.LapTime = lap.Duration()
	}

	var speedTotal float64
	for _, s := range lap.Samples {
		speedTotal += s.Speed
		if s.Speed > sum.MaxSpeed {
			sum.MaxSpeed = s.Speed
		}
	}
	if len(lap.Samples) > 0 {
		sum.AvgSpeed = speedTotal / float64(len(lap.Samples))
	}

	if len(zones) == 0 {
		sum.SpeedOnly = true
		sum.OverallScore = clamp100(sum.AvgSpeed / cfg.GetReferenceSpeedMPS() * 100)
		return sum
	}

	var scoreTotal, brakingTime float64
	var peakTotal, decelTotal, trailTotal, absTotal float64
	for _, m := range zones {
		zr := ZoneReport{
			ZoneMetrics:    m,
			Efficiency:     zoneEfficiency(m),
			Smoothness:     zoneSmoothness(m, cfg),
			Aggressiveness: zoneAggressiveness(m, cfg),
		}
		sum.Zones = append(sum.Zones, zr)

		scoreTotal += (zr.Efficiency + zr.Smoothness) / 2
		brakingTime += m.Duration
		peakTotal += m.BrakePeak
		decelTotal += m.DecelAvg
		trailTotal += m.TrailRatio
		absTotal += m.ABSRatio
	}
	n := float64(len(zones))
	sum.OverallScore = clamp100(scoreTotal / n)
	sum.AvgBrakePeak = peakTotal / n
	sum.AvgDecel = decelTotal / n
	sum.AvgTrailRatio = trailTotal / n
	sum.AvgABSRatio = absTotal / n
	if sum.LapTime > 0 {
		sum.BrakeEfficiency = clamp100(brakingTime / sum.LapTime * 100)
	}

	sum.Sectors = sectorAnalysis(lap.SectorMarkers, zones)
	return sum
}

// sectorAnalysis partitions zones by the sector they start in and
// aggregates each partition. Laps without sector markers get a single
// sector covering the whole lap.
func sectorAnalysis(markers []float64, zones []ZoneMetrics) []SectorSummary {
	count := len(markers)
	if count == 0 {
		count = 1
	}
	sectors := make([]SectorSummary, count)
	for i := range sectors {
		sectors[i].Sector = i
	}
	for _, m := range zones {
		idx := m.Corner
		if idx < 0 || idx >= count {
			idx = count - 1
		}
		s := &sectors[idx]
		s.ZoneCount++
		s.AvgBrakePeak += m.BrakePeak
		s.AvgDecel += m.DecelAvg
		s.TimeSpentBraking += m.Duration
	}
	for i := range sectors {
		if n := float64(sectors[i].ZoneCount); n > 0 {
			sectors[i].AvgBrakePeak /= n
			sectors[i].AvgDecel /= n
		}
	}
	return sectors
}
