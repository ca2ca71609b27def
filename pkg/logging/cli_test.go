package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIHandler_Colors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Info("training started")
	out := buf.String()
	assert.Contains(t, out, "training started")
	assert.Contains(t, out, colorGreen)
	assert.NotContains(t, out, colorRed)

	buf.Reset()
	logger.Error("training failed")
	out = buf.String()
	assert.Contains(t, out, "training failed")
	assert.Contains(t, out, colorRed)
	assert.Contains(t, out, colorReset)
}

func TestCLIHandler_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     slog.Level
		logFunc   func(*slog.Logger)
		shouldLog bool
	}{
		{"info handler logs info", slog.LevelInfo, func(l *slog.Logger) { l.Info("x") }, true},
		{"info handler filters debug", slog.LevelInfo, func(l *slog.Logger) { l.Debug("x") }, false},
		{"debug handler logs debug", slog.LevelDebug, func(l *slog.Logger) { l.Debug("x") }, true},
		{"error handler filters warn", slog.LevelError, func(l *slog.Logger) { l.Warn("x") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(slog.New(NewCLIHandler(&buf, tt.level)))
			assert.Equal(t, tt.shouldLog, buf.Len() > 0)
		})
	}
}

func TestCLIHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo))

	logger.Info("run tracked", "id", "abc-123", "artifacts", 3)

	out := buf.String()
	assert.Contains(t, out, "run tracked")
	assert.Contains(t, out, "id=abc-123")
	assert.Contains(t, out, "artifacts=3")
}

func TestCLIHandler_GroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCLIHandler(&buf, slog.LevelInfo)

	grouped := handler.WithGroup("train")
	require.NotEqual(t, handler, grouped)

	slog.New(grouped).Info("grid search done")
	assert.Contains(t, buf.String(), "[train] grid search done")

	// WithAttrs is a no-op passthrough
	assert.Equal(t, handler, handler.WithAttrs([]slog.Attr{slog.String("k", "v")}))
}

func TestSetDefaultLoggers(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	SetDefaultCLILogger("debug")
	require.NotNil(t, slog.Default())
	slog.Debug("cli logger active")

	SetDefaultServerLogger("info")
	require.NotNil(t, slog.Default())
	slog.Info("server logger active")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"  warn  ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.input), tt.input)
	}
}
