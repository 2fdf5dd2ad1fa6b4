package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, want between %v and %v", got, before, after)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(time.Hour)
	if !c.Now().Equal(start.Add(time.Hour)) {
		t.Errorf("Now() after Advance = %v, want %v", c.Now(), start.Add(time.Hour))
	}

	if got := c.Since(start); got != time.Hour {
		t.Errorf("Since(start) = %v, want 1h", got)
	}

	reset := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.Set(reset)
	if !c.Now().Equal(reset) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), reset)
	}
}
