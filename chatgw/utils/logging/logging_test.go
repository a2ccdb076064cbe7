package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggerCreatesDirectory(t *testing.T) {
	prev := []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger}
	t.Cleanup(func() {
		AppLogger, RequestLogger, TimerLogger, ErrorLogger = prev[0], prev[1], prev[2], prev[3]
	})

	dir := filepath.Join(t.TempDir(), "nested", "logs")
	require.NoError(t, InitLogger(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	TimerLogger.Info("probe")
	Sync()
	_, err = os.Stat(filepath.Join(dir, "timer.log"))
	assert.NoError(t, err)
}

func TestLogDurationWithoutInit(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	done := LogDuration(ctx, "noop")
	assert.NotPanics(t, done)
}
