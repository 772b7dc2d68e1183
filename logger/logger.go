// Package logger provides the process-wide structured logger used by the
// solver pipeline. Hot loops (per-element compression, per-nonce walks)
// never log; only phase boundaries do.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger()

// Logger returns the current process-wide logger.
func Logger() zerolog.Logger {
	return logger
}

// Set replaces the process-wide logger.
func Set(l zerolog.Logger) {
	logger = l
}

// SetOutput redirects log output to w, keeping the console format.
func SetOutput(w io.Writer) {
	logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen})
}

// Disable silences all logging.
func Disable() {
	logger = zerolog.Nop()
}
