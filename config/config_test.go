package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parambind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
binder:
  case_insensitive: true
  prefix: ":"
  typed_placeholders: true
  plan_cache_size: 16
dialect: postgres
statement_cache_size: 32
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Binder.CaseInsensitive)
	assert.Equal(t, ":", cfg.Binder.Prefix)
	assert.True(t, cfg.BinderConfig().TypedPlaceholders)
	assert.Equal(t, 16, cfg.Binder.PlanCacheSize)
	assert.Equal(t, 32, cfg.StatementCacheSize)

	d, err := cfg.DialectImpl()
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	b, err := cfg.NewBinder(nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Binder, b.Config())

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "dialect: mysql\n"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, Default().Binder, cfg.Binder)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "binder: [unclosed"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDialect, "sqlite")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, "dialect: postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, "warn", cfg.Logging.Level)

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"prefix", func(c *Config) { c.Binder.Prefix = "#" }},
		{"dialect", func(c *Config) { c.Dialect = "oracle" }},
		{"statement cache", func(c *Config) { c.StatementCacheSize = -1 }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBinderConfigHashComments(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.BinderConfig().HashComments)

	cfg.Dialect = "mariadb"
	assert.True(t, cfg.BinderConfig().HashComments)
	assert.False(t, cfg.Binder.HashComments, "file settings untouched")

	b, err := cfg.NewBinder(nil)
	require.NoError(t, err)
	var names []string
	for p := range b.Placeholders("SELECT 1 # @old\nWHERE x = @x") {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"x"}, names)
}

func TestNewStatementCache(t *testing.T) {
	cfg := Default()
	sc, err := cfg.NewStatementCache()
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Zero(t, sc.Len())

	cfg.StatementCacheSize = 0
	sc, err = cfg.NewStatementCache()
	require.NoError(t, err)
	assert.Nil(t, sc)
}
