package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "keyword", cfg.Router.Strategy)
	assert.Equal(t, "router", cfg.Router.ReasoningPolicy)
	assert.Equal(t, 20, cfg.Router.HistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "sql", cfg.Conversations.Backend)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "support")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "supportdesk")
	t.Setenv("REASONING_POLICY", "responder")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CONVERSATIONS_BACKEND", "Memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "responder", cfg.Router.ReasoningPolicy)
	assert.Equal(t, "memory", cfg.Conversations.Backend)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t,
		"host=db.internal port=5432 user=support password=secret dbname=supportdesk sslmode=disable",
		cfg.Database.DatabaseDSN(),
	)
}

func TestLoad_OpenAIKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ROUTER_STRATEGY", "llm")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
router:
  strategy: keyword
  manifest_path: keywords.yaml
archive:
  bucket: transcripts-bucket
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "keywords.yaml", cfg.Router.ManifestPath)
	assert.Equal(t, "transcripts-bucket", cfg.Archive.Bucket)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: 8080, LogLevel: "info", LogFormat: "text"},
			Database:      DatabaseConfig{Driver: "sqlite"},
			Conversations: ConversationsConfig{Backend: "sql"},
			Router:        RouterConfig{Strategy: "keyword", ReasoningPolicy: "router"},
			LLM:           LLMConfig{Provider: "openai"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"bad level", func(c *Config) { c.Server.LogLevel = "loud" }, "invalid log level"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"bad backend", func(c *Config) { c.Conversations.Backend = "mongo" }, "invalid conversations backend"},
		{"bad strategy", func(c *Config) { c.Router.Strategy = "dice" }, "invalid router strategy"},
		{"bad policy", func(c *Config) { c.Router.ReasoningPolicy = "both" }, "invalid reasoning policy"},
		{"llm without key", func(c *Config) { c.Router.Strategy = "llm" }, "requires LLM_API_KEY"},
		{"llm bad provider", func(c *Config) {
			c.Router.Strategy = "llm"
			c.LLM.Provider = "mystery"
			c.LLM.APIKey = "k"
		}, "invalid llm provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseDSN_SQLiteDefault(t *testing.T) {
	db := DatabaseConfig{Driver: "sqlite"}
	assert.Contains(t, db.DatabaseDSN(), "supportdesk.db")

	db.DSN = "file::memory:"
	assert.Equal(t, "file::memory:", db.DatabaseDSN())
}
