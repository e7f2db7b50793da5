package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"warn":    zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"verbose": zap.InfoLevel,
	}

	for in, want := range cases {
		if got := ParseLevel(in).Level(); got != want {
			t.Fatalf("%q: want %s, got %s", in, want, got)
		}
	}
}
