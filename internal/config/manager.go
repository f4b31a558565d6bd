package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"sync"

	logx "gamewatch/pkg/logx"
)

// ConfigManager owns the config file and the currently committed config.
// File values are layered: defaults, file, environment, then the override
// hook (CLI flags).
type ConfigManager struct {
	path string

	mu       sync.RWMutex
	cfg      *Config
	lastHash uint64

	log      logx.Logger
	getenv   func(string) string
	override func(*Config)
}

func NewConfigManager(path string) *ConfigManager {
	return &ConfigManager{path: path, getenv: os.Getenv}
}

func (m *ConfigManager) Path() string { return m.path }

func (m *ConfigManager) SetLogger(log logx.Logger) { m.log = log }

// SetEnv replaces the environment lookup (tests).
func (m *ConfigManager) SetEnv(getenv func(string) string) { m.getenv = getenv }

// SetOverride installs a hook applied after env on every Parse, so flag
// values survive reloads.
func (m *ConfigManager) SetOverride(fn func(*Config)) { m.override = fn }

// Parse reads the file and layers env and overrides. An empty path yields
// defaults plus env, which is enough for env-only deployments.
func (m *ConfigManager) Parse() (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(m.path) != "" {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return nil, err
		}
		if cfg, err = decode(m.path, b); err != nil {
			return nil, fmt.Errorf("%s: %w", m.path, err)
		}
	}
	ApplyEnv(cfg, m.getenv)
	if m.override != nil {
		m.override(cfg)
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func decode(path string, b []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

// Load parses, validates and commits.
func (m *ConfigManager) Load() (*Config, error) {
	cfg, err := m.Parse()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	m.Commit(cfg)
	return cfg, nil
}

func (m *ConfigManager) Commit(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hashConfig(cfg)
	m.mu.Unlock()
}

func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Reload re-reads the file. An invalid file keeps the committed config and
// returns the error. changed is false when the content is identical.
func (m *ConfigManager) Reload() (cfg *Config, changed bool, err error) {
	next, err := m.Parse()
	if err == nil {
		err = Validate(next)
	}
	if err != nil {
		if !m.log.IsZero() {
			m.log.Warn("config rejected; keeping previous", logx.String("path", m.path), logx.Err(err))
		}
		return m.Get(), false, err
	}

	h := hashConfig(next)
	m.mu.RLock()
	prev, unchanged := m.cfg, h != 0 && h == m.lastHash
	m.mu.RUnlock()
	if unchanged {
		return prev, false, nil
	}

	m.Commit(next)
	if !m.log.IsZero() {
		sections, attrs := SummarizeConfigChange(prev, next)
		attrs = append(attrs, logx.String("path", m.path), logx.String("sections", strings.Join(sections, ",")))
		m.log.Info("config reloaded", attrs...)
	}
	return next, true, nil
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
