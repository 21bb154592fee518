// Package config loads and validates metatree.yaml.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pseudomuto/metatree/pkg/catalog"
	"github.com/pseudomuto/metatree/pkg/consts"
	"github.com/pseudomuto/metatree/pkg/model"
	"github.com/pseudomuto/metatree/pkg/source/clickhouse"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceMemory     = "memory"
	SourceSQLite     = "sqlite"
	SourceClickHouse = "clickhouse"
)

type (
	// Source selects and configures the data source entities are fetched from.
	Source struct {
		// Kind is one of memory, sqlite or clickhouse.
		Kind string `yaml:"kind" validate:"oneof=memory sqlite clickhouse"`

		// Path is the YAML fixture (memory) or database file (sqlite). Relative
		// paths are resolved against the directory of the config file.
		Path string `yaml:"path,omitempty" validate:"required_unless=Kind clickhouse"`

		// DSN is the ClickHouse connection string.
		DSN string `yaml:"dsn,omitempty" validate:"required_if=Kind clickhouse"`

		// TLS enables mutual TLS for the ClickHouse connection.
		TLS *clickhouse.TLSOptions `yaml:"tls,omitempty"`

		// CaseSensitive disables case folding when the memory and sqlite sources
		// match predicates.
		CaseSensitive bool `yaml:"case_sensitive,omitempty"`
	}

	// Collation configures name ordering.
	Collation struct {
		// Default is used when the server reports no collation, and for names
		// that cannot be decoded. Empty selects case-insensitive ordinal order.
		Default string `yaml:"default"`
	}

	// Log configures the CLI logger.
	Log struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=text json"`
	}

	// Metrics configures fetch instrumentation.
	Metrics struct {
		Enabled bool `yaml:"enabled"`

		// Textfile, when set, receives the collected metrics in the Prometheus
		// text format once a command finishes.
		Textfile string `yaml:"textfile,omitempty"`
	}

	// Config is the metatree project configuration.
	Config struct {
		// Flavor selects the object model: sqlserver or clickhouse.
		Flavor    string    `yaml:"flavor" validate:"oneof=sqlserver clickhouse"`
		Source    Source    `yaml:"source"`
		Collation Collation `yaml:"collation"`
		Log       Log       `yaml:"log"`
		Metrics   Metrics   `yaml:"metrics"`
	}
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig parses and validates a configuration from r. Missing values take
// their defaults: the sqlserver flavor, a memory source, the default SQL
// Server collation, and info level text logs.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader(`
//	flavor: clickhouse
//	source:
//	  kind: clickhouse
//	  dsn: clickhouse://localhost:9000/default
//	`))
//	if err != nil {
//		return err
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile loads a configuration from path. A relative source path is
// made relative to the config file's directory.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("metatree.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	cfg, err := LoadConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	if cfg.Source.Path != "" && !filepath.IsAbs(cfg.Source.Path) {
		cfg.Source.Path = filepath.Join(filepath.Dir(path), cfg.Source.Path)
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags and the combinations they
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	if c.Source.Kind == SourceClickHouse && c.Flavor != model.FlavorClickHouse {
		return errors.Errorf("invalid config: the clickhouse source requires the clickhouse flavor, got %s", c.Flavor)
	}
	return nil
}

// Registry returns the object model selected by Flavor.
func (c *Config) Registry() (*catalog.Registry, error) {
	registry, ok := model.ForFlavor(c.Flavor)
	if !ok {
		return nil, errors.Errorf("unknown flavor %q", c.Flavor)
	}
	return registry, nil
}

// Logger builds a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Log.Level)}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func (c *Config) applyDefaults() {
	if c.Flavor == "" {
		c.Flavor = model.FlavorSQLServer
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceMemory
	}
	if c.Collation.Default == "" && c.Flavor == model.FlavorSQLServer {
		c.Collation.Default = consts.DefaultCollation
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
