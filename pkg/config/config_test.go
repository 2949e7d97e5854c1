package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	d := NewDefaultConfig()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", "", "")
	f.String("server.addr", d.Server.Addr, "")
	f.String("server.engine", d.Server.Engine, "")
	f.Duration("server.read-timeout", d.Server.ReadTimeout, "")
	f.Bool("metrics.type-comments", d.Metrics.TypeComments, "")
	return f
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("METRICS_LOG_PATH", t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "http", cfg.Server.Engine)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "native", cfg.Metrics.Exposition)
	assert.Equal(t, []string{"build", "memory", "gc", "threads", "processor", "process"}, cfg.Metrics.Binders.Enabled())
	assert.Equal(t, "net/http", cfg.Server.RuntimeName())
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("METRICS_LOG_PATH", t.TempDir())
	path := writeYAML(t, `
server:
  addr: "127.0.0.1:9000"
  engine: gin
  read_timeout: 10s
  idle_timeout: 90s
metrics:
  type_comments: true
  binders:
    process: false
`)

	t.Run("file over default", func(t *testing.T) {
		cfg, err := Load(testFlags(), path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
		assert.Equal(t, "gin", cfg.Server.Engine)
		assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 90*time.Second, cfg.Server.IdleTimeout)
		assert.True(t, cfg.Metrics.TypeComments)
		assert.False(t, cfg.Metrics.Binders.Process)
		assert.True(t, cfg.Metrics.Binders.GC)
		assert.Equal(t, "gin", cfg.Server.RuntimeName())
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("METRICS_SERVER_ADDR", "127.0.0.1:9100")
		t.Setenv("METRICS_SERVER_READ_TIMEOUT", "15s")
		cfg, err := Load(testFlags(), path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("METRICS_SERVER_ADDR", "127.0.0.1:9100")
		flags := testFlags()
		require.NoError(t, flags.Parse([]string{"--server.addr=127.0.0.1:9200", "--server.read-timeout=20s"}))
		cfg, err := Load(flags, path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9200", cfg.Server.Addr)
		assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
	})
}

func TestLoad_CommonLabelsFromEnv(t *testing.T) {
	t.Setenv("METRICS_LOG_PATH", t.TempDir())
	t.Setenv("METRICS_METRICS_COMMON_LABELS", "application=demo, region=eu")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"application": "demo", "region": "eu"}, cfg.Metrics.CommonLabels)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	logDir := t.TempDir()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown engine", func(c *Config) { c.Server.Engine = "jetty" }, true},
		{"bad addr", func(c *Config) { c.Server.Addr = "nohost" }, true},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"unknown exposition", func(c *Config) { c.Metrics.Exposition = "otlp" }, true},
		{"bad label name", func(c *Config) { c.Metrics.CommonLabels = map[string]string{"bad-name": "x"} }, true},
		{"reserved label name", func(c *Config) { c.Metrics.CommonLabels = map[string]string{"__name": "x"} }, true},
		{"good label", func(c *Config) { c.Metrics.CommonLabels = map[string]string{"application": "x"} }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"fatal log level", func(c *Config) { c.Log.Level = "fatal" }, false},
		{"dpanic log level", func(c *Config) { c.Log.Level = "dpanic" }, false},
		{"upper case log level", func(c *Config) { c.Log.Level = "WARN" }, false},
		{"log path is a file", func(c *Config) { c.Log.Path = writeYAML(t, "x: 1") }, true},
		{"no retention", func(c *Config) { c.Log.MaxAge, c.Log.MaxBackup = 0, 0 }, true},
		{"runtime with quote", func(c *Config) { c.Server.Runtime = `a"b` }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig()
			c.Log.Path = logDir
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLabels(t *testing.T) {
	got, err := ParseLabels("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseLabels("a=1,b=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": ""}, got)

	_, err = ParseLabels("novalue")
	assert.Error(t, err)
}

func TestValidLogLevel(t *testing.T) {
	for _, l := range LogLevels {
		assert.True(t, ValidLogLevel(l), l)
		assert.True(t, ValidLogLevel(strings.ToUpper(l)), l)
	}
	assert.False(t, ValidLogLevel("trace"))
	assert.False(t, ValidLogLevel(""))
}
