package telemetry

import (
	"errors"
	"testing"
)

var testDetection = ZoneDetection{
	BrakeOn:     5.0,
	BrakeOff:    1.0,
	MinDuration: 0.1,
	MinOffDwell: 0.1,
}

// ramp builds a sample series at 10 Hz with the given brake trace.
func ramp(brakes []float64) []Sample {
	samples := make([]Sample, len(brakes))
	for i, b := range brakes {
		samples[i] = Sample{
			Time:     float64(i) * 0.1,
			Distance: float64(i) * 5,
			Speed:    50,
			Brake:    b,
		}
	}
	return samples
}

func TestSegmentNoBraking(t *testing.T) {
	samples := ramp([]float64{0, 0, 2, 3, 4, 4.9, 0, 0})
	zones, err := Segment(samples, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 0 {
		t.Errorf("expected no zones for brake always below threshold, got %d", len(zones))
	}
}

func TestSegmentEmptyLap(t *testing.T) {
	zones, err := Segment(nil, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 0 {
		t.Errorf("expected no zones for empty lap, got %d", len(zones))
	}
}

func TestSegmentSingleZone(t *testing.T) {
	samples := ramp([]float64{0, 0, 20, 60, 80, 40, 10, 0, 0, 0})
	zones, err := Segment(samples, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}
	if zones[0].Start != 2 {
		t.Errorf("zone start = %d, want 2", zones[0].Start)
	}
	// Brake drops below BrakeOff at index 7 and stays there; the zone ends
	// at the last braking sample.
	if zones[0].End != 6 {
		t.Errorf("zone end = %d, want 6", zones[0].End)
	}
}

func TestSegmentZoneOpenAtLapEnd(t *testing.T) {
	samples := ramp([]float64{0, 0, 0, 30, 70, 90, 95})
	zones, err := Segment(samples, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}
	if zones[0].End != len(samples)-1 {
		t.Errorf("unclosed zone should end at last sample, got end=%d", zones[0].End)
	}
}

func TestSegmentNoiseDoesNotFragment(t *testing.T) {
	// A momentary dip below BrakeOff shorter than MinOffDwell must not
	// split the zone in two.
	det := testDetection
	det.MinOffDwell = 0.25
	samples := ramp([]float64{0, 0, 40, 60, 0.5, 55, 50, 0, 0, 0, 0})
	zones, err := Segment(samples, det)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 merged zone, got %d", len(zones))
	}
	if zones[0].Start != 2 || zones[0].End != 6 {
		t.Errorf("zone = [%d,%d], want [2,6]", zones[0].Start, zones[0].End)
	}
}

func TestSegmentTwoZones(t *testing.T) {
	samples := ramp([]float64{0, 30, 60, 0, 0, 0, 0, 50, 70, 0, 0, 0})
	zones, err := Segment(samples, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d: %v", len(zones), zones)
	}
	if zones[0].Start != 1 || zones[1].Start != 7 {
		t.Errorf("zone starts = %d,%d, want 1,7", zones[0].Start, zones[1].Start)
	}
}

func TestSegmentBrakingAtLapStart(t *testing.T) {
	samples := ramp([]float64{80, 60, 20, 0, 0, 0})
	zones, err := Segment(samples, testDetection)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 1 || zones[0].Start != 0 {
		t.Fatalf("expected zone starting at sample 0, got %v", zones)
	}
}

func TestSegmentShortZoneDiscarded(t *testing.T) {
	det := testDetection
	det.MinDuration = 0.5
	samples := ramp([]float64{0, 0, 60, 0, 0, 0, 0, 0, 0, 0})
	zones, err := Segment(samples, det)
	if err != nil {
		t.Fatalf("Segment() error: %v", err)
	}
	if len(zones) != 0 {
		t.Errorf("expected short spike to be discarded, got %v", zones)
	}
}

func TestSegmentMalformedInput(t *testing.T) {
	samples := ramp([]float64{0, 10, 60, 0})
	samples[2].Time = samples[1].Time // duplicate timestamp
	_, err := Segment(samples, testDetection)
	if !errors.Is(err, ErrMalformedTelemetry) {
		t.Fatalf("Segment() = %v, want ErrMalformedTelemetry", err)
	}
}

func TestCornerFor(t *testing.T) {
	markers := []float64{0, 500, 1200}
	tests := []struct {
		dist float64
		want int
	}{
		{0, 0},
		{499, 0},
		{500, 1},
		{1199, 1},
		{1200, 2},
		{5000, 2},
	}
	for _, tt := range tests {
		if got := CornerFor(markers, tt.dist); got != tt.want {
			t.Errorf("CornerFor(%v) = %d, want %d", tt.dist, got, tt.want)
		}
	}

	if got := CornerFor(nil, 300); got != 0 {
		t.Errorf("CornerFor with no markers = %d, want 0", got)
	}
}
