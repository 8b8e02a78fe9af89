package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Corpus.MaxRange)
	assert.Equal(t, "text", cfg.Corpus.TextField)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.MinInterval)
	assert.Equal(t, 12*time.Hour, cfg.Schedule.MaxInterval)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("", noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesAndResolvesPaths(t *testing.T) {
	path := writeConfig(t, `
corpus:
  path: data/tweets.csv
  max_range: 50
ledger:
  backend: sqlite
  path: /var/lib/postbot/ledger.db
publisher:
  kind: stdout
  timeout: 10s
schedule:
  min_interval: 1h
  max_interval: 90m
logging:
  level: debug
`)
	dir := filepath.Dir(path)

	cfg, err := Load(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data/tweets.csv"), cfg.Corpus.Path)
	assert.Equal(t, 50, cfg.Corpus.MaxRange)
	assert.Equal(t, "text", cfg.Corpus.TextField, "unset fields keep defaults")
	assert.Equal(t, "sqlite", cfg.Ledger.Backend)
	assert.Equal(t, "/var/lib/postbot/ledger.db", cfg.Ledger.Path)
	assert.Equal(t, filepath.Join(dir, "posted.lock"), cfg.Lock.Path)
	assert.Equal(t, "stdout", cfg.Publisher.Kind)
	assert.Equal(t, 10*time.Second, cfg.Publisher.Timeout)
	assert.Equal(t, 90*time.Minute, cfg.Schedule.MaxInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ExampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "postbot.example.yaml")
	cfg, err := Load(path, noEnv)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "corpus.csv"), cfg.Corpus.Path)
	assert.Equal(t, filepath.Join(dir, "x_token.json"), cfg.Publisher.TokenFile)
	assert.Equal(t, filepath.Join(dir, "postbot.prom"), cfg.Metrics.Textfile)
	assert.Equal(t, Default().Schedule, cfg.Schedule)
}

func TestLoad_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "corpus:\n  pth: x.csv\n"},
		{"unknown section", "twitter:\n  api_key: nope\n"},
		{"secret in file", "publisher:\n  access_token: nope\n"},
		{"bad backend", "ledger:\n  backend: redis\n"},
		{"bad kind", "publisher:\n  kind: mastodon\n"},
		{"non-positive range", "corpus:\n  max_range: 0\n"},
		{"bad duration", "publisher:\n  timeout: soon\n"},
		{"bad url", "publisher:\n  base_url: ftp://x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), noEnv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config")
		})
	}
}

func TestLoad_SemanticValidation(t *testing.T) {
	_, err := Load(writeConfig(t, "schedule:\n  min_interval: 13h\n"), noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds schedule.max_interval")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvCorpus:       "/data/c.csv",
		EnvXAccessToken: "tok",
		EnvXClientID:    "",
	}
	cfg := Default()
	cfg.Publisher.ClientID = "from-file"
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "/data/c.csv", cfg.Corpus.Path)
	assert.Equal(t, "tok", cfg.Publisher.AccessToken)
	assert.Equal(t, "from-file", cfg.Publisher.ClientID, "empty env values are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"same ledger and lock", func(c *Config) { c.Lock.Path = c.Ledger.Path }, "must differ"},
		{"zero timeout", func(c *Config) { c.Publisher.Timeout = 0 }, "publisher.timeout"},
		{"negative jitter", func(c *Config) { c.Schedule.Jitter = -time.Second }, "schedule.jitter"},
		{"empty corpus", func(c *Config) { c.Corpus.Path = "" }, "corpus.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
