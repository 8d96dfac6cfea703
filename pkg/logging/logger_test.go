package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestComponentLogger(t *testing.T) {
	logger := Default()

	child := logger.Component("engine")
	if child == nil || child.Logger == nil {
		t.Fatal("Component() returned nil logger")
	}
	if child == logger {
		t.Error("Component() should return a new Logger instance")
	}

	// Child keeps the parent's level settings.
	ctx := context.Background()
	if !child.Enabled(ctx, slog.LevelInfo) {
		t.Error("component logger should enable info level")
	}
	if child.Enabled(ctx, slog.LevelDebug) {
		t.Error("component logger should not enable debug level")
	}
}
