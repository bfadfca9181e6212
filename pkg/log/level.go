package log

import (
	"fmt"
	"log/slog"

	"github.com/levenlabs/go-llog"
)

// LevelFatal sits above slog.LevelError so that only fatal messages pass.
const LevelFatal = slog.LevelError + 4

// LevelFromLLog maps an llog level, as set by the log-level flag, onto slog.
func LevelFromLLog(l llog.Level) (slog.Level, error) {
	switch l {
	case llog.DebugLevel:
		return slog.LevelDebug, nil
	case llog.InfoLevel:
		return slog.LevelInfo, nil
	case llog.WarnLevel:
		return slog.LevelWarn, nil
	case llog.ErrorLevel:
		return slog.LevelError, nil
	case llog.FatalLevel:
		return LevelFatal, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", l)
	}
}
