package monitor

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the operator diagnostic logger: human-readable output on
// stderr so it never mixes with mirrored device lines on stdout, plus an
// optional rotated JSON debug log. The capture log is a separate concern
// (LogSink) and is never rotated.
func NewLogger(verbose bool, debugPath string) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timestampLayout}
	if debugPath != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   debugPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
