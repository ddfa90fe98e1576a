package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		wantErr bool
	}{
		{name: "prod", env: "prod"},
		{name: "local", env: "local"},
		{name: "dev", env: "dev"},
		{name: "docker", env: "docker"},
		{name: "unknown env", env: "staging", wantErr: true},
		{name: "level override", env: "prod", level: "debug"},
		{name: "invalid level", env: "prod", level: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if l == nil {
				t.Fatal("logger is nil")
			}
		})
	}
}

func TestNewLoggerLevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "error")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled when level is error")
	}
}

func TestFromContext(t *testing.T) {
	base := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), base)

	if got := FromContext(ctx); got != base {
		t.Error("expected the stored logger back")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Error("expected a nop logger, got nil")
	}
}
