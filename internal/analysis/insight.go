package analysis

import (
	"fmt"

	"github.com/apex-data/brake.report/internal/config"
)

// InsightType categorises a piece of feedback.
type InsightType string

const (
	InsightSuccess     InsightType = "success"
	InsightWarning     InsightType = "warning"
	InsightImprovement InsightType = "improvement"
)

// Priority orders how prominently an insight should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Insight is one piece of qualitative feedback derived from a lap summary.
type Insight struct {
	Type     InsightType `json:"type"`
	Priority Priority    `json:"priority"`
	Message  string      `json:"message"`
}

// zoneABSWarnRatio is the per-zone ABS ratio above which a corner gets its
// own warning, independent of the lap-average threshold.
const zoneABSWarnRatio = 0.4

type lapRule struct {
	match    func(LapSummary, *config.TuningConfig) bool
	typ      InsightType
	priority Priority
	message  string
}

type zoneRule struct {
	match    func(ZoneReport, *config.TuningConfig) bool
	typ      InsightType
	priority Priority
	message  func(ZoneReport) string
}

// Rules evaluate top to bottom; emitted insight order is declaration order
// so repeated runs over the same summary produce identical output.
var lapRules = []lapRule{
	{
		match: func(s LapSummary, cfg *config.TuningConfig) bool {
			return s.AvgBrakePeak > cfg.GetHeavyBrakePeakPct()
		},
		typ:      InsightWarning,
		priority: PriorityHigh,
		message:  "Heavy braking: average peak pedal pressure is very high. Try braking earlier with less initial pressure.",
	},
	{
		match: func(s LapSummary, cfg *config.TuningConfig) bool {
			return s.AvgABSRatio > cfg.GetHighABSRatio()
		},
		typ:      InsightImprovement,
		priority: PriorityMedium,
		message:  "ABS engages frequently across the lap. Modulate pedal pressure to stay under the lockup threshold.",
	},
	{
		match: func(s LapSummary, cfg *config.TuningConfig) bool {
			return s.AvgTrailRatio > cfg.GetGoodTrailRatio()
		},
		typ:      InsightSuccess,
		priority: PriorityLow,
		message:  "Strong trail braking. Carrying brake pressure into corner entry is working well.",
	},
	{
		match: func(s LapSummary, cfg *config.TuningConfig) bool {
			return s.BrakeEfficiency > cfg.GetBrakeTimeBudgetPct()
		},
		typ:      InsightImprovement,
		priority: PriorityMedium,
		message:  "A large share of the lap is spent on the brakes. Shorter, firmer applications free up time on throttle.",
	},
}

var zoneRules = []zoneRule{
	{
		match: func(z ZoneReport, cfg *config.TuningConfig) bool {
			return z.ABSRatio > zoneABSWarnRatio
		},
		typ:      InsightWarning,
		priority: PriorityHigh,
		message: func(z ZoneReport) string {
			return fmt.Sprintf("Corner %d: ABS is active for most of the braking zone. Ease initial pedal pressure there.", z.Corner+1)
		},
	},
	{
		match: func(z ZoneReport, cfg *config.TuningConfig) bool {
			return z.TrailRatio < cfg.GetTrailUsageTarget()
		},
		typ:      InsightImprovement,
		priority: PriorityMedium,
		message: func(z ZoneReport) string {
			return fmt.Sprintf("Corner %d: braking is released before turn-in. Trailing the brake into the corner would stabilise entry.", z.Corner+1)
		},
	},
}

// GenerateInsights runs the rule table over a lap summary. Lap-level rules
// evaluate first, then zone rules per zone in lap order. When nothing fires
// a single fallback success insight is returned.
func GenerateInsights(sum LapSummary, cfg *config.TuningConfig) []Insight {
	var out []Insight
	if !sum.SpeedOnly {
		for _, r := range lapRules {
			if r.match(sum, cfg) {
				out = append(out, Insight{Type: r.typ, Priority: r.priority, Message: r.message})
			}
		}
		for _, z := range sum.Zones {
			for _, r := range zoneRules {
				if r.match(z, cfg) {
					out = append(out, Insight{Type: r.typ, Priority: r.priority, Message: r.message(z)})
				}
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Insight{
			Type:     InsightSuccess,
			Priority: PriorityLow,
			Message:  "Braking is stable across the lap. Keep refining corner-by-corner consistency.",
		})
	}
	return out
}
