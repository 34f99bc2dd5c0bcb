package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options describes logger construction parameters.
//
// OutputPaths and ErrorOutputPaths accept "stdout", "stderr" or a file path.
// Both lists feed the same handler; a destination named twice is opened once.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}
	var sinks sinkSet
	for _, name := range append(append([]string{}, outputs...), errOutputs...) {
		if err := sinks.add(name); err != nil {
			return nil, err
		}
	}

	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "json":
		return slog.New(newJSONHandler(sinks.writer(), levelVar, addSource)), nil
	case "", "console":
		return slog.New(newPrettyHandler(sinks.writer(), levelVar, addSource)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sinkSet collects the writers a logger fans out to.
type sinkSet struct {
	seen    map[string]struct{}
	writers []io.Writer
}

func (s *sinkSet) add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, dup := s.seen[name]; dup {
		return nil
	}
	s.seen[name] = struct{}{}

	switch name {
	case "stdout":
		s.writers = append(s.writers, os.Stdout)
		return nil
	case "stderr":
		s.writers = append(s.writers, os.Stderr)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create log directory for %s: %w", name, err)
	}
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", name, err)
	}
	s.writers = append(s.writers, file)
	return nil
}

func (s *sinkSet) writer() io.Writer {
	switch len(s.writers) {
	case 0:
		return os.Stdout
	case 1:
		return s.writers[0]
	default:
		return io.MultiWriter(s.writers...)
	}
}
