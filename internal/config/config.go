package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Detection DetectionConfig `mapstructure:"detection"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// SessionsConfig controls the session store backend
type SessionsConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" or "redis"
	TTL     time.Duration `mapstructure:"ttl"`     // redis backend only
}

// DetectionConfig carries the tuned detection thresholds. The values are
// empirically tuned as a set; changing one silently shifts recall/precision,
// so deployments should override them together or not at all.
type DetectionConfig struct {
	PrimaryThreshold   float64 `mapstructure:"primary_threshold"`   // rule-only accept
	SecondaryThreshold float64 `mapstructure:"secondary_threshold"` // external classifier gate
	RuleWeight         float64 `mapstructure:"rule_weight"`
	ExternalWeight     float64 `mapstructure:"external_weight"`
	BlendThreshold     float64 `mapstructure:"blend_threshold"`
	PatternFloor       float64 `mapstructure:"pattern_floor"` // confidence floor when any pattern hit
}

// DefaultDetection returns the tuned threshold set
func DefaultDetection() DetectionConfig {
	return DetectionConfig{
		PrimaryThreshold:   0.3,
		SecondaryThreshold: 0.1,
		RuleWeight:         0.4,
		ExternalWeight:     0.6,
		BlendThreshold:     0.5,
		PatternFloor:       0.6,
	}
}

// LLMConfig holds external AI service configuration. An empty API key for
// the selected provider disables all AI-assisted paths.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // "claude" or "openai"
	ClaudeAPIKey    string        `mapstructure:"claude_api_key"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	ExtractTimeout  time.Duration `mapstructure:"extract_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
}

// HasAPIKey reports whether the configured provider has a usable key
func (c LLMConfig) HasAPIKey() bool {
	switch c.Provider {
	case "openai":
		return c.OpenAIAPIKey != ""
	default:
		return c.ClaudeAPIKey != ""
	}
}

type WebhooksConfig struct {
	Enabled   bool              `mapstructure:"enabled"`
	Endpoints []WebhookEndpoint `mapstructure:"endpoints"`
	Workers   int               `mapstructure:"workers"`
	QueueSize int               `mapstructure:"queue_size"`
}

type WebhookEndpoint struct {
	URL    string   `mapstructure:"url"`
	Secret string   `mapstructure:"secret"`
	Events []string `mapstructure:"events"` // empty means all
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/sentinel-lab")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.enabled", "SENTINEL_REDIS_ENABLED")
	v.BindEnv("redis.host", "SENTINEL_REDIS_HOST")
	v.BindEnv("redis.port", "SENTINEL_REDIS_PORT")
	v.BindEnv("redis.password", "SENTINEL_REDIS_PASSWORD")
	v.BindEnv("database.enabled", "SENTINEL_DATABASE_ENABLED")
	v.BindEnv("database.host", "SENTINEL_DATABASE_HOST")
	v.BindEnv("database.port", "SENTINEL_DATABASE_PORT")
	v.BindEnv("database.user", "SENTINEL_DATABASE_USER")
	v.BindEnv("database.password", "SENTINEL_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "SENTINEL_DATABASE_DBNAME")
	v.BindEnv("nats.enabled", "SENTINEL_NATS_ENABLED")
	v.BindEnv("nats.url", "SENTINEL_NATS_URL")
	v.BindEnv("llm.provider", "SENTINEL_LLM_PROVIDER")
	v.BindEnv("llm.claude_api_key", "SENTINEL_LLM_CLAUDE_API_KEY")
	v.BindEnv("llm.openai_api_key", "SENTINEL_LLM_OPENAI_API_KEY")
	v.BindEnv("app.environment", "SENTINEL_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults plus env vars are a
		// complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sentinel-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "sentinel:")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("sessions.backend", "memory")
	v.SetDefault("sessions.ttl", 72*time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("ratelimit.requests_per_minute", 120)

	d := DefaultDetection()
	v.SetDefault("detection.primary_threshold", d.PrimaryThreshold)
	v.SetDefault("detection.secondary_threshold", d.SecondaryThreshold)
	v.SetDefault("detection.rule_weight", d.RuleWeight)
	v.SetDefault("detection.external_weight", d.ExternalWeight)
	v.SetDefault("detection.blend_threshold", d.BlendThreshold)
	v.SetDefault("detection.pattern_floor", d.PatternFloor)

	v.SetDefault("llm.provider", "claude")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.classify_timeout", 8*time.Second)
	v.SetDefault("llm.extract_timeout", 8*time.Second)
	v.SetDefault("llm.generate_timeout", 10*time.Second)

	v.SetDefault("webhooks.workers", 5)
	v.SetDefault("webhooks.queue_size", 1000)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-API-Key"})
	v.SetDefault("cors.max_age", 300)
}
