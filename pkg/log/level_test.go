package log

import (
	"log/slog"
	"testing"

	"github.com/levenlabs/go-llog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromLLog(t *testing.T) {
	for l, want := range map[llog.Level]slog.Level{
		llog.DebugLevel: slog.LevelDebug,
		llog.InfoLevel:  slog.LevelInfo,
		llog.WarnLevel:  slog.LevelWarn,
		llog.ErrorLevel: slog.LevelError,
		llog.FatalLevel: LevelFatal,
	} {
		got, err := LevelFromLLog(l)
		require.NoError(t, err, l.String())
		assert.Equal(t, want, got, l.String())
	}

	_, err := LevelFromLLog(llog.Level(42))
	assert.EqualError(t, err, "unknown log level: unknown level")
}
