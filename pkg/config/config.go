// Package config loads application configuration from defaults, an optional
// config file and environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Conversations ConversationsConfig
	Router        RouterConfig
	LLM           LLMConfig
	Archive       ArchiveConfig
}

type ServerConfig struct {
	Port            int
	Environment     string
	LogLevel        string
	LogFormat       string
	RateLimit       int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	Seed            bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ConversationsConfig selects where conversations are stored: "sql" uses
// the configured database, "memory" keeps them in process and loses them on
// restart
type ConversationsConfig struct {
	Backend string
}

type RouterConfig struct {
	Strategy        string
	ManifestPath    string
	ReasoningPolicy string
	HistoryLimit    int
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

type ArchiveConfig struct {
	Bucket string
	Region string
	Prefix string
}

var (
	validDrivers    = []string{"postgres", "sqlite"}
	validStrategies = []string{"keyword", "llm"}
	validBackends   = []string{"sql", "memory"}
	validPolicies   = []string{"router", "responder"}
	validProviders  = []string{"openai", "anthropic", "google"}
	validLogLevels  = []string{"trace", "debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// env bindings: config key -> environment variable names
var envBindings = map[string][]string{
	"server.port":              {"SERVER_PORT", "PORT"},
	"server.environment":       {"ENVIRONMENT"},
	"server.log_level":         {"LOG_LEVEL"},
	"server.log_format":        {"LOG_FORMAT"},
	"server.rate_limit":        {"RATE_LIMIT"},
	"server.rate_limit_window": {"RATE_LIMIT_WINDOW"},
	"server.shutdown_timeout":  {"SHUTDOWN_TIMEOUT"},

	"database.driver":            {"DB_DRIVER"},
	"database.dsn":               {"DB_DSN", "DATABASE_URL"},
	"database.host":              {"DB_HOST"},
	"database.port":              {"DB_PORT"},
	"database.user":              {"DB_USER"},
	"database.password":          {"DB_PASSWORD"},
	"database.name":              {"DB_NAME"},
	"database.ssl_mode":          {"DB_SSL_MODE"},
	"database.max_open_conns":    {"DB_MAX_OPEN_CONNS"},
	"database.max_idle_conns":    {"DB_MAX_IDLE_CONNS"},
	"database.conn_max_lifetime": {"DB_CONN_MAX_LIFETIME"},
	"database.auto_migrate":      {"DB_AUTO_MIGRATE"},
	"database.seed":              {"DB_SEED"},

	"redis.addr":     {"REDIS_ADDR"},
	"redis.password": {"REDIS_PASSWORD"},
	"redis.db":       {"REDIS_DB"},
	"redis.ttl":      {"REDIS_TTL"},

	"conversations.backend": {"CONVERSATIONS_BACKEND"},

	"router.strategy":         {"ROUTER_STRATEGY"},
	"router.manifest_path":    {"MANIFEST_PATH"},
	"router.reasoning_policy": {"REASONING_POLICY"},
	"router.history_limit":    {"HISTORY_LIMIT"},

	"llm.provider": {"LLM_PROVIDER"},
	"llm.api_key":  {"LLM_API_KEY", "OPENAI_API_KEY"},
	"llm.model":    {"LLM_MODEL"},
	"llm.base_url": {"LLM_BASE_URL"},
	"llm.timeout":  {"LLM_TIMEOUT"},

	"archive.bucket": {"ARCHIVE_BUCKET"},
	"archive.region": {"ARCHIVE_REGION", "AWS_REGION"},
	"archive.prefix": {"ARCHIVE_PREFIX"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.rate_limit_window", time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 30*time.Minute)

	v.SetDefault("conversations.backend", "sql")

	v.SetDefault("router.strategy", "keyword")
	v.SetDefault("router.reasoning_policy", "router")
	v.SetDefault("router.history_limit", 20)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 15*time.Second)

	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.prefix", "transcripts")
}

// Load reads configuration from the environment (and .env when present)
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an optional file, then the environment.
// Environment variables take precedence over file values.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			Environment:     strings.ToLower(v.GetString("server.environment")),
			LogLevel:        strings.ToLower(v.GetString("server.log_level")),
			LogFormat:       strings.ToLower(v.GetString("server.log_format")),
			RateLimit:       v.GetInt("server.rate_limit"),
			RateLimitWindow: v.GetDuration("server.rate_limit_window"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			Seed:            v.GetBool("database.seed"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Conversations: ConversationsConfig{
			Backend: strings.ToLower(v.GetString("conversations.backend")),
		},
		Router: RouterConfig{
			Strategy:        strings.ToLower(v.GetString("router.strategy")),
			ManifestPath:    v.GetString("router.manifest_path"),
			ReasoningPolicy: strings.ToLower(v.GetString("router.reasoning_policy")),
			HistoryLimit:    v.GetInt("router.history_limit"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(v.GetString("llm.provider")),
			APIKey:   v.GetString("llm.api_key"),
			Model:    v.GetString("llm.model"),
			BaseURL:  v.GetString("llm.base_url"),
			Timeout:  v.GetDuration("llm.timeout"),
		},
		Archive: ArchiveConfig{
			Bucket: v.GetString("archive.bucket"),
			Region: v.GetString("archive.region"),
			Prefix: v.GetString("archive.prefix"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated and required values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !slices.Contains(validLogLevels, c.Server.LogLevel) {
		return fmt.Errorf("invalid log level %q (valid: %s)", c.Server.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.Server.LogFormat) {
		return fmt.Errorf("invalid log format %q (valid: %s)", c.Server.LogFormat, strings.Join(validLogFormats, ", "))
	}
	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver %q (valid: %s)", c.Database.Driver, strings.Join(validDrivers, ", "))
	}
	if !slices.Contains(validBackends, c.Conversations.Backend) {
		return fmt.Errorf("invalid conversations backend %q (valid: %s)", c.Conversations.Backend, strings.Join(validBackends, ", "))
	}
	if !slices.Contains(validStrategies, c.Router.Strategy) {
		return fmt.Errorf("invalid router strategy %q (valid: %s)", c.Router.Strategy, strings.Join(validStrategies, ", "))
	}
	if !slices.Contains(validPolicies, c.Router.ReasoningPolicy) {
		return fmt.Errorf("invalid reasoning policy %q (valid: %s)", c.Router.ReasoningPolicy, strings.Join(validPolicies, ", "))
	}
	if c.Router.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative")
	}
	if c.Router.Strategy == "llm" {
		if !slices.Contains(validProviders, c.LLM.Provider) {
			return fmt.Errorf("invalid llm provider %q (valid: %s)", c.LLM.Provider, strings.Join(validProviders, ", "))
		}
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm router strategy requires LLM_API_KEY")
		}
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development" || c.Server.Environment == "dev"
}

// DatabaseDSN returns the DSN for the configured driver
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return "file:supportdesk.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
