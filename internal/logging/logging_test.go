package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/rickgao/sessionlink/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_AutoIsJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "auto"})
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}

	logger.Info("hello", "session", "s1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["session"] != "s1" {
		t.Errorf("entry = %v, want msg=hello session=s1", entry)
	}
}

func TestNewWithWriter_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("output %q contains info entry below warn level", out)
	}
	if !strings.Contains(out, "msg=loud") {
		t.Errorf("output %q missing text-formatted warn entry", out)
	}
}

func TestNewWithWriter_DebugAddsShortSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}

	logger.Debug("traced")

	out := buf.String()
	if !strings.Contains(out, "source=logging_test.go:") {
		t.Errorf("output %q missing short source", out)
	}
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	if _, err := NewWithWriter(&bytes.Buffer{}, config.LogConfig{Level: "loud"}); err == nil {
		t.Error("NewWithWriter() error = nil, want error for unknown level")
	}
}
