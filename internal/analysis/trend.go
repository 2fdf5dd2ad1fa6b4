package analysis

import (
	"gonum.org/v1/gonum/stat"
)

// TrendResult describes consistency and improvement across a user's laps
// within a day window. A zero-lap window is a valid result, not an error.
type TrendResult struct {
	LapCount       int     `json:"lap_count"`
	BestLapTime    float64 `json:"best_lap_time_s"`
	AverageLapTime float64 `json:"average_lap_time_s"`

	// ConsistencyScore maps the coefficient of variation of lap times to
	// [0,100]; identical lap times score 100.
	ConsistencyScore float64 `json:"consistency_score"`

	// ImprovementRate is the percentage change between the mean lap time
	// of the earliest third and the latest third of the window. Positive
	// means getting faster. Nil when fewer than 3 laps are available;
	// serialised as "insufficient_data" by the API layer.
	ImprovementRate *float64 `json:"improvement_rate"`
}

// ComputeTrend reduces a time-ordered slice of lap summaries (oldest first)
// into a TrendResult.
func ComputeTrend(summaries []LapSummary) TrendResult {
	res := TrendResult{LapCount: len(summaries)}
	if len(summaries) == 0 {
		return res
	}

	times := make([]float64, len(summaries))
	for i, s := range summaries {
		times[i] = s.LapTime
	}

	res.BestLapTime = times[0]
	for _, t := range times {
		if t < res.BestLapTime {
			res.BestLapTime = t
		}
	}
	res.AverageLapTime = stat.Mean(times, nil)
	res.ConsistencyScore = consistencyScore(times)

	if rate, ok := improvementRate(times); ok {
		res.ImprovementRate = &rate
	}
	return res
}

// consistencyScore is 100 − CV·100 floored at 0, with CV the population
// coefficient of variation of lap times.
func consistencyScore(times []float64) float64 {
	if len(times) < 2 {
		return 100
	}
	mean := stat.Mean(times, nil)
	if mean <= 0 {
		return 0
	}
	cv := stat.PopStdDev(times, nil) / mean
	score := 100 - cv*100
	if score < 0 {
		score = 0
	}
	return score
}

// improvementRate compares the earliest third of the window against the
// latest third. Requires at least 3 laps.
func improvementRate(times []float64) (float64, bool) {
	n := len(times)
	if n < 3 {
		return 0, false
	}
	third := n / 3
	early := stat.Mean(times[:third], nil)
	recent := stat.Mean(times[n-third:], nil)
	if early <= 0 {
		return 0, false
	}
	return (early - recent) / early * 100, true
}
