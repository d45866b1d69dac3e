package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestErrorRecordsCarryStack(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "info")

	logger.Info("hello")
	logger.Error("boom")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var info, errRec map[string]any
	if err := json.Unmarshal(lines[0], &info); err != nil {
		t.Fatalf("unmarshal info: %v", err)
	}
	if err := json.Unmarshal(lines[1], &errRec); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if _, ok := info["stacktrace"]; ok {
		t.Error("info record should not carry a stacktrace")
	}
	if _, ok := errRec["stacktrace"]; !ok {
		t.Error("error record should carry a stacktrace")
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "warn")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}
