// Package logger owns the process-wide structured logger. Until Setup is
// called every record is discarded.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Config struct {
	// Dir is the data directory; logs go to <Dir>/logs/orbitsim.log.
	Dir   string
	Debug bool
	// Writer, when set, replaces the log file.
	Writer io.Writer
}

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

// Setup installs a JSON logger and returns its cleanup function.
func Setup(cfg Config) (func() error, error) {
	w := cfg.Writer
	path := ""
	var f *os.File

	if w == nil {
		dir := filepath.Join(filepath.Clean(cfg.Dir), "logs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			setDiscard()
			return nil, err
		}

		path = filepath.Join(dir, "orbitsim.log")
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			setDiscard()
			return nil, err
		}
		w = f
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Debug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})

	mu.Lock()
	global = slog.New(h)
	logFile = f
	logPath = path
	mu.Unlock()

	L().Debug("logger.initialized", "path", path, "debug", cfg.Debug)

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		logFile = nil
		logPath = ""
		global = discard()
		return cerr
	}

	return cleanup, nil
}

func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func IsReady() error {
	mu.RLock()
	defer mu.RUnlock()
	if logFile == nil || logPath == "" {
		return errors.New("logger not initialized")
	}
	return nil
}

func setDiscard() {
	mu.Lock()
	defer mu.Unlock()
	global = discard()
	logFile = nil
	logPath = ""
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
