package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultFile is used when the file sink is on without a path.
const DefaultFile = "./gamewatch.log"

type Config struct {
	Level   string
	Console bool
	File    FileConfig
	// Stderr receives console output; nil means os.Stderr. Stdout is left
	// to command output (reports, diff JSON).
	Stderr io.Writer
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// Service owns the sinks. Apply swaps them while loggers keep working,
// which is how watch mode picks up a new logging section.
type Service struct {
	mu   sync.Mutex
	cfg  Config
	file *os.File
	root atomic.Pointer[zerolog.Logger]
}

func New(cfg Config) (*Service, Logger) {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat
	s := &Service{}
	s.Apply(cfg)
	return s, Logger{svc: s}
}

func (s *Service) current() zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return *zl
	}
	return zerolog.Nop()
}

func (s *Service) Logger() Logger { return Logger{svc: s} }

// Apply rebuilds the sinks. The log file is only reopened when its path or
// enablement changed. With no sink configured, console output is used.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimSpace(cfg.File.Path)
	if path == "" {
		path = DefaultFile
	}
	prevPath := strings.TrimSpace(s.cfg.File.Path)
	if prevPath == "" {
		prevPath = DefaultFile
	}
	if s.file != nil && (!cfg.File.Enabled || path != prevPath) {
		_ = s.file.Close()
		s.file = nil
	}
	if cfg.File.Enabled && s.file == nil {
		f, err := openLogFile(path)
		if err != nil {
			fmt.Fprintf(stderr(cfg), "logx: %v\n", err)
		}
		s.file = f
	}
	s.cfg = cfg

	var sinks []io.Writer
	if cfg.Console || s.file == nil {
		sinks = append(sinks, consoleWriter(stderr(cfg)))
	}
	if s.file != nil {
		sinks = append(sinks, zerolog.SyncWriter(s.file))
	}
	zl := build(cfg.Level, zerolog.MultiLevelWriter(sinks...))
	s.root.Store(&zl)
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, nil
}

func stderr(cfg Config) io.Writer {
	if cfg.Stderr != nil {
		return cfg.Stderr
	}
	return os.Stderr
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: consoleTimeFormat,
		FormatCaller: func(i any) string {
			s, _ := i.(string)
			return s
		},
	}
}
