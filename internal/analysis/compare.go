package analysis

import (
	"sort"
	"time"
)

// BenchmarkEntry is one lap/corner's standing in the leaderboard population.
// Entries are append-only: a resubmitted lap gets a new entry rather than
// mutating an old one.
type BenchmarkEntry struct {
	LapID       string    `json:"lap_id"`
	UserID      string    `json:"user_id"`
	Track       string    `json:"track"`
	Corner      int       `json:"corner"`
	BrakePeak   float64   `json:"brake_peak_pct"`
	DecelAvg    float64   `json:"decel_avg_mps2"`
	TrailRatio  float64   `json:"trail_braking_ratio"`
	ABSRatio    float64   `json:"abs_on_ratio"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// BrakingScore collapses a zone's metrics into the single ranking metric.
// Peak pressure contributes up to 40, deceleration up to 30 (scaled from
// m/s² to km/h/s), trail braking up to 20, low ABS usage up to 10.
func BrakingScore(peak, decel, trail, abs float64) float64 {
	peakPart := peak * 0.4
	if peakPart > 40 {
		peakPart = 40
	}
	decelPart := decel * 3.6 * 0.3
	if decelPart > 30 {
		decelPart = 30
	}
	if decelPart < 0 {
		decelPart = 0
	}
	absPart := 10 - abs*20
	if absPart < 0 {
		absPart = 0
	}
	return peakPart + decelPart + trail*20 + absPart
}

// Rank sorts entries by score descending. Ties break by earlier submission
// time, then lap id, so repeated runs produce the same order.
func Rank(entries []BenchmarkEntry) []BenchmarkEntry {
	ranked := make([]BenchmarkEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].SubmittedAt.Equal(ranked[j].SubmittedAt) {
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		}
		return ranked[i].LapID < ranked[j].LapID
	})
	return ranked
}

// Percentile returns the target entry's percentile rank within the
// population: (strictly worse + half of tied) / n · 100, where the tied
// count includes the target. A single-entry population is both best and
// worst and reports 100. The second return is false when lapID is not in
// the population.
func Percentile(entries []BenchmarkEntry, lapID string) (float64, bool) {
	var target *BenchmarkEntry
	for i := range entries {
		if entries[i].LapID == lapID {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		return 0, false
	}
	if len(entries) == 1 {
		return 100, true
	}
	var worse, tied int
	for _, e := range entries {
		switch {
		case e.Score < target.Score:
			worse++
		case e.Score == target.Score:
			tied++
		}
	}
	return (float64(worse) + 0.5*float64(tied)) / float64(len(entries)) * 100, true
}

// PopulationStats is the min/avg/max spread of a benchmark population,
// shown alongside the leaderboard.
type PopulationStats struct {
	Count int `json:"count"`

	BrakePeakMin float64 `json:"brake_peak_min"`
	BrakePeakAvg float64 `json:"brake_peak_avg"`
	BrakePeakMax float64 `json:"brake_peak_max"`

	DecelMin float64 `json:"decel_min"`
	DecelAvg float64 `json:"decel_avg"`
	DecelMax float64 `json:"decel_max"`

	TrailRatioAvg float64 `json:"trail_ratio_avg"`
	ABSRatioAvg   float64 `json:"abs_ratio_avg"`
}

// Stats reduces a population to its spread. Zero entries yield a zero-count
// result with all fields 0.
func Stats(entries []BenchmarkEntry) PopulationStats {
	st := PopulationStats{Count: len(entries)}
	if len(entries) == 0 {
		return st
	}
	st.BrakePeakMin = entries[0].BrakePeak
	st.BrakePeakMax = entries[0].BrakePeak
	st.DecelMin = entries[0].DecelAvg
	st.DecelMax = entries[0].DecelAvg
	for _, e := range entries {
		st.BrakePeakAvg += e.BrakePeak
		st.DecelAvg += e.DecelAvg
		st.TrailRatioAvg += e.TrailRatio
		st.ABSRatioAvg += e.ABSRatio
		if e.BrakePeak < st.BrakePeakMin {
			st.BrakePeakMin = e.BrakePeak
		}
		if e.BrakePeak > st.BrakePeakMax {
			st.BrakePeakMax = e.BrakePeak
		}
		if e.DecelAvg < st.DecelMin {
			st.DecelMin = e.DecelAvg
		}
		if e.DecelAvg > st.DecelMax {
			st.DecelMax = e.DecelAvg
		}
	}
	n := float64(len(entries))
	st.BrakePeakAvg /= n
	st.DecelAvg /= n
	st.TrailRatioAvg /= n
	st.ABSRatioAvg /= n
	return st
}

// Standing classifies a value against a population average.
type Standing string

const (
	StandingAbove   Standing = "above_average"
	StandingAverage Standing = "average"
	StandingBelow   Standing = "below_average"
)

// Classify places value relative to avg with a 5% dead band around the
// average. higherIsBetter flips the comparison for metrics where lower
// values win.
func Classify(value, avg float64, higherIsBetter bool) Standing {
	band := avg * 0.05
	if band < 0 {
		band = -band
	}
	diff := value - avg
	if diff >= -band && diff <= band {
		return StandingAverage
	}
	better := diff > 0
	if !higherIsBetter {
		better = !better
	}
	if better {
		return StandingAbove
	}
	return StandingBelow
}
