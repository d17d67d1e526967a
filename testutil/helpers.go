package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// JPEGHeader is enough of a JPEG for content sniffing to report image/jpeg
var JPEGHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

// JPEGFrame returns a small JPEG-looking payload tagged with n so frames
// can be told apart
func JPEGFrame(n int) []byte {
	frame := append([]byte{}, JPEGHeader...)
	return append(frame, byte(n), 0xFF, 0xD9)
}

// WriteFile writes data to name inside dir and returns the full path
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// WriteSizedFile creates a file of exactly size bytes starting with header.
// The remainder is a sparse hole, so large fixtures cost no disk space.
func WriteSizedFile(t *testing.T, dir, name string, size int64, header []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()

	if len(header) > 0 {
		if _, err := f.Write(header); err != nil {
			t.Fatalf("Failed to write header of %s: %v", name, err)
		}
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Failed to size %s: %v", name, err)
	}
	return path
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
