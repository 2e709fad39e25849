package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPython   = "TRANSCRIBE_PYTHON"
	EnvLogLevel = "TRANSCRIBE_LOG_LEVEL"

	DefaultPython = "python3"
)

type Config struct {
	// Python is the interpreter that runs the faster-whisper helper.
	Python   string
	LogLevel slog.Level
}

// Load reads the process environment after applying the given env files
// (".env" when none are given). Missing env files are skipped; variables
// already set in the environment win.
//
// The returned Config is always usable. A malformed env file or an unknown
// log level leaves the affected settings at their defaults and is reported
// through the error so the caller can warn and carry on.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var errs []error
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("loading env file %s: %w", f, err))
		}
	}

	cfg := Config{
		Python:   DefaultPython,
		LogLevel: slog.LevelInfo,
	}
	if v := strings.TrimSpace(os.Getenv(EnvPython)); v != "" {
		cfg.Python = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", EnvLogLevel, err))
		} else {
			cfg.LogLevel = level
		}
	}
	return cfg, errors.Join(errs...)
}
