package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.WeekStart != "monday" {
		t.Errorf("WeekStart = %q", c.WeekStart)
	}
	if !c.Highlight() {
		t.Error("Highlight() = false, want true")
	}
	if c.Refresh != "0 0 * * *" {
		t.Errorf("Refresh = %q", c.Refresh)
	}
	if c.LogLevel != "ERROR" {
		t.Errorf("LogLevel = %q", c.LogLevel)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFileIsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.WeekStart != "monday" {
		t.Errorf("WeekStart = %q", c.WeekStart)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Load must not create %s (stat err %v)", path, err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Refresh == "" {
		t.Error("expected defaults")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
locale: de_DE
week_start: Sunday
highlight_today: false
timezone: Europe/Berlin
refresh: "*/5 * * * *"
log_level: debug
ics:
  - name: Work
    path: work.ics
  - id: home
    path: /abs/home.ics
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Locale != "de_DE" || c.WeekStart != "sunday" || c.Highlight() {
		t.Errorf("got %+v", c)
	}
	if c.Refresh != "*/5 * * * *" || c.LogLevel != "DEBUG" {
		t.Errorf("got refresh %q, level %q", c.Refresh, c.LogLevel)
	}
	if got := c.Location().String(); got != "Europe/Berlin" {
		t.Errorf("Location = %q", got)
	}
	if len(c.ICS) != 2 {
		t.Fatalf("ICS = %+v", c.ICS)
	}
	if c.ICS[0].ID != "Work" || c.ICS[0].Path != filepath.Join(filepath.Dir(path), "work.ics") {
		t.Errorf("ICS[0] = %+v", c.ICS[0])
	}
	if c.ICS[1].ID != "home" || c.ICS[1].Path != "/abs/home.ics" {
		t.Errorf("ICS[1] = %+v", c.ICS[1])
	}
}

func TestNormalizeUnknownValues(t *testing.T) {
	c := &Config{WeekStart: "friday", LogLevel: "chatty"}
	c.Normalize()
	if c.WeekStart != "monday" {
		t.Errorf("WeekStart = %q", c.WeekStart)
	}
	if c.LogLevel != "ERROR" {
		t.Errorf("LogLevel = %q", c.LogLevel)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "week_start: [", "parse"},
		{"bad cron", "refresh: every tuesday", "refresh"},
		{"bad timezone", "timezone: Mars/Olympus", "timezone"},
		{"ics without path", "ics:\n  - name: empty\n", "path is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
