package logging

import (
	"log/slog"
	"testing"

	"github.com/calloway/automata-core/internal/infrastructure/config"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		cfg := config.LoggingConfig{Level: "info", Format: format, Output: "stdout"}
		if logger := New(cfg, "1.0.0"); logger == nil {
			t.Fatalf("New(format=%q) returned nil", format)
		}
	}
}

func TestNew_StderrOutput(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}
	if logger := New(cfg, "1.0.0"); logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestComponent_ReturnsNewLogger(t *testing.T) {
	base := Default()
	derived := base.Component("rules")
	if derived == nil {
		t.Fatal("expected non-nil component logger")
	}
	if derived == base {
		t.Error("Component should return a new logger")
	}
}

func TestWith_ReturnsNewLogger(t *testing.T) {
	base := Default()
	derived := base.With("rule_id", "overheat-guard")
	if derived == nil {
		t.Fatal("expected non-nil derived logger")
	}
	if derived == base {
		t.Error("With should return a new logger")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected non-nil default logger")
	}
}
