package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		dev   bool
		want  zapcore.Level
	}{
		{level: "info", want: zapcore.InfoLevel},
		{level: "debug", dev: true, want: zapcore.DebugLevel},
		{level: "warn", want: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			l, err := New(tt.level, tt.dev)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.want) {
				t.Fatalf("expected %v enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
				t.Fatalf("expected %v disabled", tt.want-1)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New("loud", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
