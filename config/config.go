// ABOUTME: Layered configuration for the pipeflow CLI and server using koanf.
// ABOUTME: Priority is flags > PIPEFLOW_* env > pipeflow.yaml/pipeflow.toml > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/logging"
)

// EnvPrefix prefixes every environment override, e.g. PIPEFLOW_MAX_SESSIONS=50.
const EnvPrefix = "PIPEFLOW_"

// DefaultFiles are tried in order when no --config flag is given.
var DefaultFiles = []string{"pipeflow.yaml", "pipeflow.yml", "pipeflow.toml"}

// Config holds all configuration for the application.
type Config struct {
	Addr         string          `koanf:"addr"`
	MaxSessions  int             `koanf:"max-sessions"`
	SessionTTL   time.Duration   `koanf:"session-ttl"`
	Journal      string          `koanf:"journal"`
	DataDir      string          `koanf:"data-dir"`
	LogLevel     string          `koanf:"log-level"`
	LogFormat    string          `koanf:"log-format"`
	Format       string          `koanf:"format"`
	Adapter      string          `koanf:"adapter"`
	PipeSuffixes []string        `koanf:"pipe-suffixes"`
	Vocabulary   flow.Vocabulary `koanf:"vocabulary"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":          "127.0.0.1:8420",
		"max-sessions":  100,
		"session-ttl":   "1h",
		"journal":       "",
		"data-dir":      "",
		"log-level":     "info",
		"log-format":    "text",
		"format":        "svg",
		"adapter":       "",
		"pipe-suffixes": []string{},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// A --config flag names the file explicitly and must exist; otherwise the
// first of DefaultFiles present in the working directory is used.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path, explicit := configPath(f)
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	// 3. Environment variables: PIPEFLOW_MAX_SESSIONS -> max-sessions,
	// PIPEFLOW_VOCABULARY__EXIT_NAMES -> vocabulary.exit_names.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server and CLI cannot run with.
func (c *Config) Validate() error {
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max-sessions must be positive, got %d", c.MaxSessions)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session-ttl must be positive, got %s", c.SessionTTL)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log-format must be text or json, got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, s := range c.PipeSuffixes {
		if !flow.IsValidName(s) {
			return fmt.Errorf("pipe suffix %q is not a valid element name", s)
		}
	}
	return nil
}

// Vocab returns the default vocabulary extended by the configured one and
// any extra pipe suffixes.
func (c *Config) Vocab() flow.Vocabulary {
	return flow.DefaultVocabulary().
		Merge(c.Vocabulary).
		Merge(flow.Vocabulary{PipeSuffixes: c.PipeSuffixes})
}

// JournalPath resolves the journal location. An explicit journal wins; a
// data dir yields data-dir/journal.db; otherwise the journal is disabled.
func (c *Config) JournalPath() string {
	if c.Journal != "" {
		return c.Journal
	}
	if c.DataDir != "" {
		return filepath.Join(c.DataDir, "journal.db")
	}
	return ""
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if fl := f.Lookup("config"); fl != nil && fl.Value.String() != "" {
			return fl.Value.String(), true
		}
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name, false
		}
	}
	return "", false
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Parser()
	}
	return yaml.Parser()
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.Split(s, "__")
	parts[0] = strings.ReplaceAll(parts[0], "_", "-")
	return strings.Join(parts, ".")
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
