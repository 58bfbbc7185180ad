package literoom

import (
	"log/slog"
	"sync/atomic"

	"github.com/tesla3327/literoom/internal/logging"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := logging.Nop()
	loggerPtr.Store(l)
}

// SetLogger configures the logger used by pipelines created after the call.
// By default literoom produces no log output. Pass nil to restore the
// default silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: internal diagnostics (backend probe detail, cache traffic)
//   - [slog.LevelInfo]: lifecycle events (accelerated backend selected)
//   - [slog.LevelWarn]: non-fatal issues (reference-engine fallback,
//     persistent-store write failure, generation failure)
//
// Example:
//
//	literoom.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
