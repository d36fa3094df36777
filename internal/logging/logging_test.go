package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := New("dev")
	if logger == nil {
		t.Fatal("expected logger")
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug level should be enabled")
	}
}
