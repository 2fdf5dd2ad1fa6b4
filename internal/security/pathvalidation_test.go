package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	safe := t.TempDir()

	if err := ValidatePathWithinDirectory(filepath.Join(safe, "lap.json"), safe); err != nil {
		t.Errorf("path inside safe dir rejected: %v", err)
	}
	if err := ValidatePathWithinDirectory(filepath.Join(safe, "sub", "lap.json"), safe); err != nil {
		t.Errorf("nested path rejected: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(safe, "..", "escape.json"), safe); err == nil {
		t.Error("parent escape accepted")
	}
	if err := ValidatePathWithinDirectory("/etc/passwd", safe); err == nil {
		t.Error("absolute path outside safe dir accepted")
	}
}

func TestValidatePathWithinDirectorySymlink(t *testing.T) {
	safe := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(safe, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if err := ValidatePathWithinDirectory(filepath.Join(link, "lap.json"), safe); err == nil {
		t.Error("symlink escape accepted")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"driver-1", "driver-1"},
		{"Spa Francorchamps", "Spa_Francorchamps"},
		{"../../etc/passwd", "etc_passwd"},
		{"a//b\\c", "a_b_c"},
		{"", "unknown"},
		{"___", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
