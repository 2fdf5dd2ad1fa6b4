package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})

	Logf("lap %s scored %d", "lap-1", 85)
	if captured != "lap lap-1 scored 85" {
		t.Errorf("captured = %q", captured)
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("dropped %d", 1)
	SetLogger(nil)
}
