package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheUsage(t *testing.T) {
	dir := t.TempDir()

	if entries, size := cacheUsage(dir); entries != 0 || size != 0 {
		t.Errorf("empty dir: entries = %d, size = %d, want 0, 0", entries, size)
	}

	sub := filepath.Join(dir, "ab")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "one.json"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "two.json"), []byte("123"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, size := cacheUsage(dir)
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}
	if size != 8 {
		t.Errorf("size = %d, want 8", size)
	}
}

func TestCacheUsageMissingDir(t *testing.T) {
	entries, size := cacheUsage(filepath.Join(t.TempDir(), "does-not-exist"))
	if entries != 0 || size != 0 {
		t.Errorf("missing dir: entries = %d, size = %d, want 0, 0", entries, size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
