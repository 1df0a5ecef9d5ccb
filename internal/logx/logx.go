// Package logx configures console logging for the chess games analyzer
// binaries. The level defaults to info and can be overridden with the
// ANALYZER_LOG_LEVEL environment variable (trace, debug, info, warn, error).
package logx

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const levelEnv = "ANALYZER_LOG_LEVEL"

// NewLogger returns a zerolog logger configured for console output.
func NewLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		// Extract just the filename, not the full path
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		// Pad to 28 characters for alignment
		return fmt.Sprintf("%-28s", fmt.Sprintf("%s:%d", short, line))
	}
	logger := zerolog.New(output).With().Timestamp().Caller().Logger()
	return logger.Level(levelFromEnv())
}

func levelFromEnv() zerolog.Level {
	s := os.Getenv(levelEnv)
	if s == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
