// Package logging builds the process logger: human-readable lines on the
// console and, optionally, JSON lines in a rotating file.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to console at level, tee'd to file when file
// is non-empty. Close the returned Closer on exit to release the file.
func New(console io.Writer, level zerolog.Level, file string) (zerolog.Logger, io.Closer) {
	var w io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	var closer io.Closer = nopCloser{}

	if file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(w, rotator)
		closer = rotator
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closer
}
