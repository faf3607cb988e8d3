// =============================================================================
// Grab Sheet Builder - Logging
// =============================================================================
//
// This module builds the zerolog logger handed to the job. Nothing here is
// global: the caller owns the logger and closes the returned io.Closer.
//
// OUTPUTS:
//   - Console: human readable, on stderr.
//   - File (when a log directory is configured): JSON lines in
//       <dir>/<file_name>/<file_name>.log
//     kept by lumberjack with MaxBackups rotated copies.
//
// DAILY ROTATION:
//   A job runs once or a few times a day. At start-up the log file is rotated
//   if it was last written on an earlier day, so each retained file holds the
//   runs of one day.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ginjaninja78/grabsheet/pkg/utils"
)

// maxFileSizeMB bounds a single log file between daily rotations.
const maxFileSizeMB = 100

// Options configures New.
type Options struct {
	// Job is attached to every record as the "job" field.
	Job string

	// RunID is attached as "run_id". Empty generates a new UUID.
	RunID string

	// Level is a zerolog level name. Empty means info.
	Level string

	// Dir is the log directory. Empty disables the file output.
	Dir string

	// FileName is the base name of the log directory and file.
	FileName string

	// MaxFiles is the number of rotated files kept.
	MaxFiles int

	// Console receives the human readable output. Default: os.Stderr.
	Console io.Writer

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// FilePath returns the log file location for dir and name.
func FilePath(dir, name string) string {
	return filepath.Join(dir, name, name+".log")
}

// New builds the logger.
//
// RETURNS:
//   - The logger.
//   - A closer for the log file (a no-op without one).
//   - An error if the level is unknown or the log directory cannot be made.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	if opts.Level == "" {
		opts.Level = "info"
	}
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	console := zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339}

	var (
		out    io.Writer = console
		closer io.Closer = nopCloser{}
	)

	if opts.Dir != "" {
		file, err := openFile(opts)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		out = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("job", opts.Job).
		Str("run_id", opts.RunID).
		Logger()

	return logger, closer, nil
}

// openFile prepares the rotating log file.
func openFile(opts Options) (*lumberjack.Logger, error) {
	path := FilePath(opts.Dir, opts.FileName)
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxFileSizeMB,
		MaxBackups: opts.MaxFiles,
		LocalTime:  true,
	}

	if modTime, err := utils.GetFileModTime(path); err == nil && !utils.SameDay(opts.Now(), modTime) {
		if err := file.Rotate(); err != nil {
			return nil, fmt.Errorf("failed to rotate log file %s: %w", path, err)
		}
	}

	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
