package fsutil

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"
)

func TestMemoryFileSystemRoundTrip(t *testing.T) {
	m := NewMemoryFileSystem()

	if m.Exists("reports/lap.json") {
		t.Fatal("file exists before write")
	}

	if err := m.WriteFile("reports/lap.json", []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !m.Exists("reports/lap.json") {
		t.Error("file missing after write")
	}

	data, err := m.ReadFile("reports/lap.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte(`{"ok":true}`)) {
		t.Errorf("ReadFile = %q", data)
	}

	// Mutating the returned slice must not affect the stored copy.
	data[0] = 'X'
	again, _ := m.ReadFile("reports/lap.json")
	if again[0] != '{' {
		t.Error("stored data aliased to caller slice")
	}
}

func TestMemoryFileSystemMissingFile(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadFile("nope.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystemMkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		if !m.Exists(dir) {
			t.Errorf("directory %s missing", dir)
		}
	}
}
