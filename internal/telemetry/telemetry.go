// Package telemetry defines the raw per-lap telemetry model and the
// brake-zone segmentation over it. All speeds are stored in m/s; brake and
// throttle are pedal percentages in [0,100]; steering angle is degrees.
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedTelemetry is returned when a lap's samples violate the
// ordering or range invariants. Wrapped errors carry the offending index.
var ErrMalformedTelemetry = errors.New("malformed telemetry")

// Sample is one telemetry reading. Samples within a lap are ordered by
// strictly increasing Time.
type Sample struct {
	Time      float64 `json:"time"`     // seconds since lap start
	Distance  float64 `json:"distance"` // metres since lap start
	Speed     float64 `json:"speed"`    // m/s
	Brake     float64 `json:"brake"`    // pedal %, 0-100
	Throttle  float64 `json:"throttle"` // pedal %, 0-100
	Steer     float64 `json:"steer"`    // steering angle, degrees
	ABSActive bool    `json:"abs_active"`
}

// Lap is a completed run. Immutable once stored; SamplesVersion increments
// whenever the raw samples are replaced so derived values can be invalidated.
type Lap struct {
	ID             string
	UserID         string
	Track          string
	Car            string
	LapTime        float64 // seconds
	SectorMarkers  []float64
	Samples        []Sample
	SamplesVersion int64
	CreatedAt      time.Time
}

// Duration returns the time covered by the lap's samples, or zero for laps
// with fewer than two samples.
func (l *Lap) Duration() float64 {
	if len(l.Samples) < 2 {
		return 0
	}
	return l.Samples[len(l.Samples)-1].Time - l.Samples[0].Time
}

// Validate checks the sample sequence invariants: strictly increasing time,
// non-decreasing distance, finite values, pedals within [0,100] and
// non-negative speed. Any violation is reported as ErrMalformedTelemetry.
func Validate(samples []Sample) error {
	for i, s := range samples {
		if !finite(s.Time) || !finite(s.Distance) || !finite(s.Speed) ||
			!finite(s.Brake) || !finite(s.Throttle) || !finite(s.Steer) {
			return fmt.Errorf("%w: non-finite value at sample %d", ErrMalformedTelemetry, i)
		}
		if s.Brake < 0 || s.Brake > 100 {
			return fmt.Errorf("%w: brake %.2f out of range at sample %d", ErrMalformedTelemetry, s.Brake, i)
		}
		if s.Throttle < 0 || s.Throttle > 100 {
			return fmt.Errorf("%w: throttle %.2f out of range at sample %d", ErrMalformedTelemetry, s.Throttle, i)
		}
		if s.Speed < 0 {
			return fmt.Errorf("%w: negative speed at sample %d", ErrMalformedTelemetry, i)
		}
		if i > 0 {
			if s.Time <= samples[i-1].Time {
				return fmt.Errorf("%w: time not strictly increasing at sample %d", ErrMalformedTelemetry, i)
			}
			if s.Distance < samples[i-1].Distance {
				return fmt.Errorf("%w: distance decreases at sample %d", ErrMalformedTelemetry, i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
