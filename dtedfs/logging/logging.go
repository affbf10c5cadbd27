package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a slog logger writing JSON records to a rotating file.
type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
	w       *lumberjack.Logger
}

// ParseLevel maps a config level name to a slog level. Unknown names fall
// back to info.
func ParseLevel(level string) (slog.Level, bool) {
	switch level {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates the rotating log file in dir and installs the logger as the
// slog default so that package-level slog calls in the library land there.
func New(level string, dir string) (*Logger, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "dtedfs.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
		Compress:   true,
	}
	if level == "debug" {
		w.MaxSize = 256
	}

	lvl, ok := ParseLevel(level)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: invalid log level, using info\n", level)
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
		w:       w,
	}
	slog.SetDefault(l.Logger)

	l.Info("Logging started",
		slog.Time("start", l.Start),
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH))

	return l, nil
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}
