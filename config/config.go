package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	FoodRepo      FoodRepoConfig
	OpenFoodFacts OpenFoodFactsConfig
	EMH           EMHConfig
	Oracle        OracleConfig
	Cache         CacheConfig
	Classifier    ClassifierConfig
	Store         StoreConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// FoodRepoConfig holds FoodRepo API configuration
type FoodRepoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenFoodFactsConfig holds Open Food Facts API configuration
type OpenFoodFactsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

// EMHConfig holds welfare rating source configuration
type EMHConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	RatingsPath string `mapstructure:"ratings_path"`
	HTMLCache   string `mapstructure:"html_cache"`
}

// OracleConfig holds the classification oracle configuration
type OracleConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ClassifierConfig holds classifier behavior configuration
type ClassifierConfig struct {
	UseRules           bool `mapstructure:"use_rules"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// StoreConfig holds mapping store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ethicalmeat/")

	v.SetEnvPrefix("ETHICALMEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// FoodRepo defaults
	v.SetDefault("foodrepo.base_url", "https://www.foodrepo.org/api/v3")

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.enabled", true)
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org/api/v2")

	// EMH defaults
	v.SetDefault("emh.base_url", "https://essenmitherz.ch")
	v.SetDefault("emh.ratings_path", "emh_ratings.csv")
	v.SetDefault("emh.html_cache", "data/html_cache")

	// Oracle defaults
	v.SetDefault("oracle.enabled", false)
	v.SetDefault("oracle.model", "gpt-4o-mini")
	v.SetDefault("oracle.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Classifier defaults
	v.SetDefault("classifier.use_rules", true)
	v.SetDefault("classifier.enable_debug_logging", false)

	// Store defaults
	v.SetDefault("store.path", "data/mappings.db")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.FoodRepo.APIKey == "" {
		return fmt.Errorf("FoodRepo API key is required (set ETHICALMEAT_FOODREPO_API_KEY)")
	}

	if config.Oracle.Enabled && config.Oracle.APIKey == "" && config.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle API key is required when the oracle is enabled (set ETHICALMEAT_ORACLE_API_KEY)")
	}

	return nil
}
