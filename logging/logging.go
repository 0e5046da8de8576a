package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)


//============================================= Logging


// SetupOpts: where log lines go
type SetupOpts struct {
	Level string
	// Dir: receives <Name>.log as JSON lines when set
	Dir string
	// Name: the role, stamped on every line
	Name string
	// Quiet: disables logging entirely
	Quiet bool
}


// ParseLevel
//	Map a level name onto zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
		case "trace":
			return zerolog.TraceLevel
		case "debug":
			return zerolog.DebugLevel
		case "warn":
			return zerolog.WarnLevel
		case "error":
			return zerolog.ErrorLevel
		default:
			return zerolog.InfoLevel
	}
}

// Setup
//	Build the process logger: console output on stderr plus an optional JSON file.
//	The returned closer releases the file and is never nil.
func Setup(opts SetupOpts) (zerolog.Logger, io.Closer, error) {
	if opts.Quiet { return zerolog.Nop(), io.NopCloser(nil), nil }

	console := zerolog.ConsoleWriter{ Out: os.Stderr, TimeFormat: zerolog.TimeFieldFormat }
	if opts.Dir == "" { return newLogger(console, opts), io.NopCloser(nil), nil }

	mkdirErr := os.MkdirAll(opts.Dir, 0o755)
	if mkdirErr != nil { return zerolog.Nop(), io.NopCloser(nil), fmt.Errorf("creating log directory: %w", mkdirErr) }

	file, openErr := os.OpenFile(filepath.Join(opts.Dir, opts.Name + ".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if openErr != nil { return zerolog.Nop(), io.NopCloser(nil), fmt.Errorf("opening log file: %w", openErr) }

	return newLogger(zerolog.MultiLevelWriter(console, file), opts), file, nil
}

func newLogger(w io.Writer, opts SetupOpts) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Str("role", opts.Name).Logger()
}

// OpenKeyLog
//	Open an NSS key log file for appending. An empty path yields a nil writer.
func OpenKeyLog(path string) (io.WriteCloser, error) {
	if path == "" { return nil, nil }

	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755)
	if mkdirErr != nil { return nil, fmt.Errorf("creating key log directory: %w", mkdirErr) }

	file, openErr := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if openErr != nil { return nil, fmt.Errorf("opening key log: %w", openErr) }

	return file, nil
}
