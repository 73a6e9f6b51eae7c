package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/ChicagoDave/latamgrid/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
	}{
		{"default", config.LogConfig{}, false},
		{"verbose", config.LogConfig{Verbose: true}, true},
		{"json", config.LogConfig{JSON: true}, false},
		{"verbose json", config.LogConfig{Verbose: true, JSON: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer func() { _ = logger.Sync() }()

			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !logger.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info should always be enabled")
			}
		})
	}
}
