package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/snapstack/pkg/store"
)

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRelativeTime(tt.t); got != tt.want {
				t.Errorf("formatRelativeTime = %q, want %q", got, tt.want)
			}
		})
	}

	old := time.Date(2021, time.March, 9, 12, 0, 0, 0, time.UTC)
	if got, want := formatRelativeTime(old), "Mar 9, 2021"; got != want {
		t.Errorf("formatRelativeTime(old) = %q, want %q", got, want)
	}
}

func TestRenderWorkspaceTable(t *testing.T) {
	data, _, _ := twoBlockWorkspace(t)
	doc := store.NewDocument("demo", data)

	out := renderWorkspaceTable([]*store.Document{doc})
	if !strings.Contains(out, "demo") {
		t.Errorf("table missing document name:\n%s", out)
	}
	if !strings.Contains(out, doc.ID) {
		t.Errorf("table missing document ID:\n%s", out)
	}
	if !strings.Contains(out, "2") {
		t.Errorf("table missing block count:\n%s", out)
	}
}
