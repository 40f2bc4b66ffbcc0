package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	now = func() time.Time { return time.Date(2017, 1, 18, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelError)
		now = time.Now
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  []string
	}{
		{"debug shows all", LevelDebug, []string{"[DEBUG] d", "[INFO] i", "[ERROR] e"}},
		{"info hides debug", LevelInfo, []string{"[INFO] i", "[ERROR] e"}},
		{"error only", LevelError, []string{"[ERROR] e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.level)
			Debug("d")
			Info("i")
			Error("e", errors.New("boom"))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d: %q", len(lines), len(tt.want), buf.String())
			}
			for i, w := range tt.want {
				if !strings.Contains(lines[i], w) {
					t.Errorf("line %d = %q, want it to contain %q", i, lines[i], w)
				}
			}
		})
	}
}

func TestKeyValues(t *testing.T) {
	buf := capture(t, LevelDebug)
	Error("load failed", errors.New("boom"), "path", "/tmp/x.ics", 42, "dropped", "dangling")

	got := strings.TrimSpace(buf.String())
	want := "2017-01-18T10:00:00Z [ERROR] load failed err=boom path=/tmp/x.ics"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" INFO ", LevelInfo, true},
		{"Error", LevelError, true},
		{"warn", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
