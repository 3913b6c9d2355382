// Package config handles configuration loading for FinanceFlow.
// It supports YAML config files, a .env file and environment variable
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every structured environment variable.
const EnvPrefix = "FINANCEFLOW"

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Store   StoreConfig   `mapstructure:"store"   yaml:"store"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Feed    FeedConfig    `mapstructure:"feed"    yaml:"feed"`
	QA      QAConfig      `mapstructure:"qa"      yaml:"qa"`
	Web     WebConfig     `mapstructure:"web"     yaml:"web"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver           string          `mapstructure:"driver"            yaml:"driver"` // "firestore" or "mongo"
	NewsCollection   string          `mapstructure:"news_collection"   yaml:"news_collection"`
	BriefsCollection string          `mapstructure:"briefs_collection" yaml:"briefs_collection"`
	Firestore        FirestoreConfig `mapstructure:"firestore"         yaml:"firestore"`
	Mongo            MongoConfig     `mapstructure:"mongo"             yaml:"mongo"`
}

// Store driver names.
const (
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
)

// FirestoreConfig holds Firestore credentials.
type FirestoreConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json" yaml:"credentials_json"`
	KeyFile         string `mapstructure:"key_file"         yaml:"key_file"`
	ProjectID       string `mapstructure:"project_id"       yaml:"project_id"`
}

// MongoConfig holds the MongoDB connection.
type MongoConfig struct {
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// LLMConfig holds the chat-completion provider configuration.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"     yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url"    yaml:"base_url"`
	Model       string        `mapstructure:"model"       yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// MarketConfig holds the quote provider settings.
type MarketConfig struct {
	BaseURL     string        `mapstructure:"base_url"    yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
}

// FeedConfig holds feed pipeline limits.
type FeedConfig struct {
	MaxItems        int `mapstructure:"max_items"         yaml:"max_items"`
	MaxSymbols      int `mapstructure:"max_symbols"       yaml:"max_symbols"`
	DefaultPageSize int `mapstructure:"default_page_size" yaml:"default_page_size"`
}

// QAConfig holds question-answering settings.
type QAConfig struct {
	ContextSize int `mapstructure:"context_size" yaml:"context_size"`
}

// WebConfig holds frontend bundle settings.
type WebConfig struct {
	DistDir string `mapstructure:"dist_dir" yaml:"dist_dir"` // empty = embedded bundle
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.financeflow/config.yaml (home directory)
//  3. /etc/financeflow/config.yaml (system)
//
// A .env file in the working directory is loaded first. Environment
// variables override config file values.
// Format: FINANCEFLOW_<SECTION>_<KEY>, e.g., FINANCEFLOW_LLM_API_KEY
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".financeflow"))
	v.AddConfigPath("/etc/financeflow")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads path into the environment without replacing variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values. Every key is
// registered so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.request_timeout", 60*time.Second)

	// Store defaults
	v.SetDefault("store.driver", DriverFirestore)
	v.SetDefault("store.news_collection", "analyzed_news")
	v.SetDefault("store.briefs_collection", "daily_briefs")
	v.SetDefault("store.firestore.credentials_json", "")
	v.SetDefault("store.firestore.key_file", "firebase-key.json")
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "financeflow")

	// LLM defaults (Groq)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.timeout", 60*time.Second)

	// Market data defaults
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.timeout", 15*time.Second)
	v.SetDefault("market.concurrency", 5)

	// Feed defaults
	v.SetDefault("feed.max_items", 50)
	v.SetDefault("feed.max_symbols", 20)
	v.SetDefault("feed.default_page_size", 10)

	v.SetDefault("qa.context_size", 10)

	v.SetDefault("web.dist_dir", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv applies the conventional, unprefixed variable names used
// by the hosting platform and the ingestion process.
func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv(EnvFirebaseCredentials); v != "" {
		cfg.Store.Firestore.CredentialsJSON = v
	}
	if v := os.Getenv(EnvGroqAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Store.Mongo.URI = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.API.Port = port
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFirestore, DriverMongo:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port: %d out of range", c.API.Port)
	}
	if c.Feed.MaxItems < 1 || c.Feed.MaxSymbols < 1 || c.Feed.DefaultPageSize < 1 {
		return fmt.Errorf("feed: limits must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
