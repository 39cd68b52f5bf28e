package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteSamples writes values one per line, the layout the simulation exports.
func WriteSamples(t *testing.T, path string, values ...float64) {
	t.Helper()
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('\n')
	}
	WriteFile(t, path, b.String())
}

// SampleDir creates dir/<start+k>.txt for each entry in files and returns
// the pattern that enumerates them.
func SampleDir(t *testing.T, dir string, start int, files ...[]float64) string {
	t.Helper()
	for k, values := range files {
		WriteSamples(t, filepath.Join(dir, strconv.Itoa(start+k)+".txt"), values...)
	}
	return filepath.Join(dir, "{i}.txt")
}
