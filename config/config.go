package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/cache"
	"github.com/Konsultn-Engineering/parambind/dialect"
)

const (
	EnvDialect  = "PARAMBIND_DIALECT"
	EnvLogLevel = "PARAMBIND_LOG_LEVEL"
)

// Config is the file form of binder, dialect and logging settings.
type Config struct {
	Binder             binder.Config `json:"binder" yaml:"binder"`
	Dialect            string        `json:"dialect" yaml:"dialect"`
	StatementCacheSize int           `json:"statement_cache_size" yaml:"statement_cache_size"`
	Logging            LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, console
}

func Default() *Config {
	return &Config{
		Binder: binder.Config{
			Prefix:        "@",
			PlanCacheSize: 256,
		},
		Dialect:            "sqlserver",
		StatementCacheSize: 128,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML config over the defaults. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if d := os.Getenv(EnvDialect); d != "" {
		c.Dialect = d
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Logging.Level = lvl
	}
}

func (c *Config) Validate() error {
	if err := c.Binder.Validate(); err != nil {
		return fmt.Errorf("binder: %w", err)
	}
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return err
	}
	if c.StatementCacheSize < 0 {
		return fmt.Errorf("statement_cache_size must not be negative: %d", c.StatementCacheSize)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

// BinderConfig returns the binder settings. MySQL-family dialects also skip
// '#' line comments when looking for placeholders.
func (c *Config) BinderConfig() binder.Config {
	cfg := c.Binder
	if d, err := dialect.Lookup(c.Dialect); err == nil && d.HashComments() {
		cfg.HashComments = true
	}
	return cfg
}

// NewBinder builds a binder from the config, logging through logger.
func (c *Config) NewBinder(logger *zap.Logger) (*binder.Binder, error) {
	return binder.New(c.BinderConfig(), binder.WithLogger(logger))
}

// NewStatementCache builds the prepared statement cache, or returns nil when
// statement_cache_size is 0.
func (c *Config) NewStatementCache() (*cache.StatementCache, error) {
	if c.StatementCacheSize == 0 {
		return nil, nil
	}
	return cache.NewStatementCache(c.StatementCacheSize)
}

func (c *Config) DialectImpl() (dialect.Dialect, error) {
	return dialect.Lookup(c.Dialect)
}

// Logger builds a zap logger at the configured level and format.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	zc := zap.NewProductionConfig()
	if strings.EqualFold(c.Logging.Format, "console") {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
