package telemetry

import (
	"errors"
	"math"
	"testing"
)

func sample(t, speed, brake float64) Sample {
	return Sample{Time: t, Distance: t * speed, Speed: speed, Brake: brake}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		wantErr bool
	}{
		{"empty", nil, false},
		{"single sample", []Sample{sample(0, 50, 0)}, false},
		{
			"well ordered",
			[]Sample{
				{Time: 0, Distance: 0, Speed: 50},
				{Time: 0.1, Distance: 5, Speed: 50},
				{Time: 0.2, Distance: 10, Speed: 49},
			},
			false,
		},
		{
			"duplicate timestamp",
			[]Sample{
				{Time: 0.1, Distance: 5, Speed: 50},
				{Time: 0.1, Distance: 6, Speed: 50},
			},
			true,
		},
		{
			"time goes backwards",
			[]Sample{
				{Time: 0.2, Distance: 5, Speed: 50},
				{Time: 0.1, Distance: 6, Speed: 50},
			},
			true,
		},
		{
			"distance decreases",
			[]Sample{
				{Time: 0.1, Distance: 10, Speed: 50},
				{Time: 0.2, Distance: 5, Speed: 50},
			},
			true,
		},
		{"brake above 100", []Sample{{Time: 0, Brake: 120}}, true},
		{"brake negative", []Sample{{Time: 0, Brake: -1}}, true},
		{"throttle above 100", []Sample{{Time: 0, Throttle: 101}}, true},
		{"negative speed", []Sample{{Time: 0, Speed: -3}}, true},
		{"NaN speed", []Sample{{Time: 0, Speed: math.NaN()}}, true},
		{"infinite time", []Sample{{Time: math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.samples)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedTelemetry) {
					t.Fatalf("Validate() = %v, want ErrMalformedTelemetry", err)
				}
			} else if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLapDuration(t *testing.T) {
	lap := Lap{Samples: []Sample{sample(1.5, 40, 0), sample(2.0, 40, 0), sample(4.5, 40, 0)}}
	if got := lap.Duration(); got != 3.0 {
		t.Errorf("Duration() = %v, want 3.0", got)
	}

	empty := Lap{}
	if got := empty.Duration(); got != 0 {
		t.Errorf("Duration() on empty lap = %v, want 0", got)
	}
}
