package xassetconf

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
)

func TestParse_YAMLMap(t *testing.T) {
	data := []byte(`
max_retry_count: 1
domain:
  a.com: b.com
  cdn.example.com: cdn-backup.example.com
concurrency: 4
timeout: 3s
log:
  level: debug
  format: json
sink:
  addr: 127.0.0.1:6379
`)
	cfg, err := Parse(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxRetryCount)
	assert.Equal(t, map[string]string{
		"a.com":           "b.com",
		"cdn.example.com": "cdn-backup.example.com",
	}, cfg.DomainMap)
	assert.Nil(t, cfg.DomainRing)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "127.0.0.1:6379", cfg.Sink.Addr)
	assert.Equal(t, DefaultSinkPrefix, cfg.Sink.Prefix)
}

func TestParse_YAMLRing(t *testing.T) {
	cfg, err := Parse([]byte("domain: [a.com, b.com, c.com]\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, cfg.DomainRing)
	assert.Nil(t, cfg.DomainMap)

	d, err := cfg.Domains()
	require.NoError(t, err)
	next, ok := d.Replacement("c.com")
	require.True(t, ok)
	assert.Equal(t, "a.com", next)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"max_retry_count": 0, "domain": {"a.com": "b.com"}, "timeout": "500ms"}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxRetryCount)
	assert.Equal(t, map[string]string{"a.com": "b.com"}, cfg.DomainMap)
	assert.Equal(t, 500*time.Millisecond, cfg.Timeout)
}

func TestParse_Defaults(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("")} {
		cfg, err := Parse(data, FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		want   error
	}{
		{"unsupported format", "a: 1", Format("toml"), ErrUnsupportedFormat},
		{"malformed yaml", "domain: [a.com", FormatYAML, ErrParseFailed},
		{"malformed json", "{", FormatJSON, ErrParseFailed},
		{"negative retries", "max_retry_count: -1", FormatYAML, ErrInvalidConfig},
		{"zero concurrency", "concurrency: 0", FormatYAML, ErrInvalidConfig},
		{"zero timeout", "timeout: 0s", FormatYAML, ErrInvalidConfig},
		{"bad level", "log: {level: loud}", FormatYAML, ErrInvalidConfig},
		{"bad format", "log: {format: xml}", FormatYAML, ErrInvalidConfig},
		{"scalar domain", "domain: a.com", FormatYAML, ErrInvalidConfig},
		{"non-string target", "domain: {a.com: 1}", FormatYAML, ErrInvalidConfig},
		{"non-string ring entry", "domain: [a.com, 2]", FormatYAML, ErrInvalidConfig},
		{"duplicate ring host", "domain: [a.com, A.com]", FormatYAML, ErrInvalidConfig},
		{"empty target", `domain: {a.com: ""}`, FormatYAML, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_MutuallyExclusiveDomain(t *testing.T) {
	cfg := Default()
	cfg.DomainMap = map[string]string{"a.com": "b.com"}
	cfg.DomainRing = []string{"a.com", "b.com"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "assets.yml")
		require.NoError(t, os.WriteFile(path, []byte("domain:\n  a.com: b.com\n"), 0o600))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a.com": "b.com"}, cfg.DomainMap)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(dir, "assets.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"domain": ["a.com", "b.com"]}`), 0o600))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.com", "b.com"}, cfg.DomainRing)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "assets.toml"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, ErrLoadFailed)
	})
}

func TestConfig_EngineOptions(t *testing.T) {
	cfg, err := Parse([]byte("max_retry_count: 1\ndomain: {a.com: b.com}\n"), FormatYAML)
	require.NoError(t, err)

	e, err := xassetretry.New(cfg.EngineOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 1, e.MaxRetryCount())

	o, err := e.OnFailure(context.Background(), "http://a.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "http://b.com/x.png", o.URL)

	ring, err := Parse([]byte("domain: [a.com, b.com]\n"), FormatYAML)
	require.NoError(t, err)
	e, err = xassetretry.New(ring.EngineOptions()...)
	require.NoError(t, err)
	o, err = e.OnFailure(context.Background(), "http://b.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "http://a.com/x.png", o.URL)
}

func TestConfig_LogLevelFallback(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "nonsense"
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	cfg.Log.Level = "WARN"
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
}
