// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlatformConfig holds credentials and defaults for one AI backend
type PlatformConfig struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	CostPerQuery      float64
	BaseURL           string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TypesenseConfig struct {
	Enabled bool
	Host    string
	Port    int
	APIKey  string
}

// CitationConfig holds the relevance scores assigned per extraction channel
type CitationConfig struct {
	MetadataRelevance  float64
	InlineRelevance    float64
	ReferenceRelevance float64
}

type Config struct {
	Port              string
	Environment       string
	LogLevel          string
	LogFormat         string
	InngestEventKey   string
	InngestSigningKey string
	DatabaseURL       string
	SlackWebhookURL   string

	OpenAI     PlatformConfig
	Anthropic  PlatformConfig
	Perplexity PlatformConfig
	Gemini     PlatformConfig

	MaxTokens   int
	Temperature float64

	QueryTimeout     time.Duration
	BatchGrace       time.Duration
	RateLimitBackend string

	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Citations CitationConfig
}

// DatabaseConfig describes the Postgres connection
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// Enabled reports whether enough is configured to open a connection.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != "" && d.Name != ""
}

// DSN renders the lib/pq keyword connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("openai_model", "gpt-4")
	v.SetDefault("openai_rpm", 60)
	v.SetDefault("openai_cost_per_query", 0.03)
	v.SetDefault("anthropic_model", "claude-3-haiku-20240307")
	v.SetDefault("anthropic_rpm", 40)
	v.SetDefault("anthropic_cost_per_query", 0.025)
	v.SetDefault("perplexity_model", "llama-3.1-sonar-small-128k-online")
	v.SetDefault("perplexity_rpm", 50)
	v.SetDefault("perplexity_cost_per_query", 0.02)
	v.SetDefault("perplexity_base_url", "https://api.perplexity.ai")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("gemini_rpm", 60)
	v.SetDefault("gemini_cost_per_query", 0.02)

	v.SetDefault("max_tokens", 2000)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("query_timeout_seconds", 60)
	v.SetDefault("batch_grace_seconds", 5)
	v.SetDefault("rate_limit_backend", "memory")

	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_sslmode", "require")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 25)
	v.SetDefault("db_conn_max_lifetime", 300)

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)

	v.SetDefault("typesense_enabled", false)
	v.SetDefault("typesense_host", "typesense")
	v.SetDefault("typesense_port", 8108)

	v.SetDefault("citation_metadata_relevance", 0.5)
	v.SetDefault("citation_inline_relevance", 0.5)
	v.SetDefault("citation_reference_relevance", 0.3)
}

// Load reads configuration from the environment, plus CONFIG_FILE when it is set.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("WARNING: could not read config file %s: %v", file, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:              v.GetString("port"),
		Environment:       v.GetString("environment"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		InngestEventKey:   v.GetString("inngest_event_key"),
		InngestSigningKey: v.GetString("inngest_signing_key"),
		DatabaseURL:       v.GetString("database_url"),
		SlackWebhookURL:   v.GetString("slack_webhook_url"),
		OpenAI: PlatformConfig{
			APIKey:            v.GetString("openai_api_key"),
			Model:             v.GetString("openai_model"),
			RequestsPerMinute: v.GetInt("openai_rpm"),
			CostPerQuery:      v.GetFloat64("openai_cost_per_query"),
			BaseURL:           v.GetString("openai_base_url"),
		},
		Anthropic: PlatformConfig{
			APIKey:            v.GetString("anthropic_api_key"),
			Model:             v.GetString("anthropic_model"),
			RequestsPerMinute: v.GetInt("anthropic_rpm"),
			CostPerQuery:      v.GetFloat64("anthropic_cost_per_query"),
			BaseURL:           v.GetString("anthropic_base_url"),
		},
		Perplexity: PlatformConfig{
			APIKey:            v.GetString("perplexity_api_key"),
			Model:             v.GetString("perplexity_model"),
			RequestsPerMinute: v.GetInt("perplexity_rpm"),
			CostPerQuery:      v.GetFloat64("perplexity_cost_per_query"),
			BaseURL:           v.GetString("perplexity_base_url"),
		},
		Gemini: PlatformConfig{
			APIKey:            v.GetString("google_ai_api_key"),
			Model:             v.GetString("gemini_model"),
			RequestsPerMinute: v.GetInt("gemini_rpm"),
			CostPerQuery:      v.GetFloat64("gemini_cost_per_query"),
			BaseURL:           v.GetString("gemini_base_url"),
		},
		MaxTokens:        v.GetInt("max_tokens"),
		Temperature:      v.GetFloat64("temperature"),
		QueryTimeout:     time.Duration(v.GetInt("query_timeout_seconds")) * time.Second,
		BatchGrace:       time.Duration(v.GetInt("batch_grace_seconds")) * time.Second,
		RateLimitBackend: strings.ToLower(v.GetString("rate_limit_backend")),
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Typesense: TypesenseConfig{
			Enabled: v.GetBool("typesense_enabled"),
			Host:    v.GetString("typesense_host"),
			Port:    v.GetInt("typesense_port"),
			APIKey:  v.GetString("typesense_api_key"),
		},
		Citations: CitationConfig{
			MetadataRelevance:  v.GetFloat64("citation_metadata_relevance"),
			InlineRelevance:    v.GetFloat64("citation_inline_relevance"),
			ReferenceRelevance: v.GetFloat64("citation_reference_relevance"),
		},
	}

	dbConfig, err := parseDatabaseURL(cfg.DatabaseURL, v)
	if err != nil {
		// Fall back to the individual DB_* variables
		dbConfig = DatabaseConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetInt("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			Name:            v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetInt("db_conn_max_lifetime"),
		}
	}
	cfg.Database = dbConfig

	return cfg
}

func parseDatabaseURL(dbURL string, v *viper.Viper) (DatabaseConfig, error) {
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL not set")
	}

	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if parsedURL.Hostname() == "" || len(parsedURL.Path) < 2 {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL must include host and database name")
	}

	cfg := DatabaseConfig{
		Host:            parsedURL.Hostname(),
		Port:            5432,
		User:            parsedURL.User.Username(),
		Name:            parsedURL.Path[1:],
		SSLMode:         v.GetString("db_sslmode"),
		MaxOpenConns:    v.GetInt("db_max_open_conns"),
		MaxIdleConns:    v.GetInt("db_max_idle_conns"),
		ConnMaxLifetime: v.GetInt("db_conn_max_lifetime"),
	}
	if mode := parsedURL.Query().Get("sslmode"); mode != "" {
		cfg.SSLMode = mode
	}
	if password, ok := parsedURL.User.Password(); ok {
		cfg.Password = password
	}
	if parsedURL.Port() != "" {
		if port, err := strconv.Atoi(parsedURL.Port()); err == nil {
			cfg.Port = port
		}
	}

	return cfg, nil
}

// Platform returns the backend config for a canonical slug.
func (c *Config) Platform(slug string) (PlatformConfig, bool) {
	switch slug {
	case "openai":
		return c.OpenAI, true
	case "anthropic":
		return c.Anthropic, true
	case "perplexity":
		return c.Perplexity, true
	case "google":
		return c.Gemini, true
	}
	return PlatformConfig{}, false
}
