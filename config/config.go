package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Cache     CacheConfig
	Documents DocumentsConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PipelineConfig exposes the empirically tuned pipeline thresholds. These are
// configuration, not invariants: the values below were tuned against a sample
// corpus and are subject to domain review.
type PipelineConfig struct {
	// Classifier
	AmbiguityCutoff  int `mapstructure:"ambiguity_cutoff"`  // both formats at/above this score = ambiguous
	AmbiguityPenalty int `mapstructure:"ambiguity_penalty"` // confidence reduction on ambiguity

	// Validation tolerances (in currency units unless noted)
	MathTolerance           float64 `mapstructure:"math_tolerance"`
	MultiShipmentMultiplier float64 `mapstructure:"multi_shipment_multiplier"` // widens math tolerance 3-5x
	ItemSubtotalTolerance   float64 `mapstructure:"item_subtotal_tolerance"`
	ItemSubtotalFloor       float64 `mapstructure:"item_subtotal_floor"`
	PriceWarnThreshold      float64 `mapstructure:"price_warn_threshold"`
	PriceCriticalThreshold  float64 `mapstructure:"price_critical_threshold"`
	EarliestPlausibleYear   int     `mapstructure:"earliest_plausible_year"` // platform inception

	// Recovery
	MinUsableConfidence float64 `mapstructure:"min_usable_confidence"`

	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds parse-result cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// DocumentsConfig selects the upstream document-to-text source
type DocumentsConfig struct {
	Source  string `mapstructure:"source"` // "file", "ocr", or "" to disable
	Root    string `mapstructure:"root"`   // file source: directory holding documents
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerClientRPS   float64 `mapstructure:"per_client_rps"`
	PerClientBurst int     `mapstructure:"per_client_burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Pick up a local .env file before viper reads the environment
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ledgerlens/")

	// Environment variable settings
	v.SetEnvPrefix("LEDGERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
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
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Pipeline defaults
	v.SetDefault("pipeline.ambiguity_cutoff", 25)
	v.SetDefault("pipeline.ambiguity_penalty", 15)
	v.SetDefault("pipeline.math_tolerance", 1.00)
	v.SetDefault("pipeline.multi_shipment_multiplier", 4.0)
	v.SetDefault("pipeline.item_subtotal_tolerance", 1.00)
	v.SetDefault("pipeline.item_subtotal_floor", 0.10)
	v.SetDefault("pipeline.price_warn_threshold", 1000.0)
	v.SetDefault("pipeline.price_critical_threshold", 10000.0)
	v.SetDefault("pipeline.earliest_plausible_year", 1994)
	v.SetDefault("pipeline.min_usable_confidence", 0.3)
	v.SetDefault("pipeline.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Document source defaults
	v.SetDefault("documents.source", "file")
	v.SetDefault("documents.root", "./documents")
	v.SetDefault("documents.base_url", "")
	v.SetDefault("documents.api_key", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_client_rps", 10.0)
	v.SetDefault("ratelimit.per_client_burst", 20)
}

// loadEnvFile reads KEY=VALUE pairs from a .env file in the working directory.
// Existing environment variables win over file entries. A missing file is not
// an error.
func loadEnvFile() error {
	file, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}

	return scanner.Err()
}

// validate validates the configuration
func validate(config *Config) error {
	p := config.Pipeline

	if p.AmbiguityCutoff <= 0 || p.AmbiguityCutoff > 100 {
		return fmt.Errorf("ambiguity cutoff must be in (0,100], got: %d", p.AmbiguityCutoff)
	}

	if p.MultiShipmentMultiplier < 1 {
		return fmt.Errorf("multi-shipment multiplier must be >= 1, got: %g", p.MultiShipmentMultiplier)
	}

	if p.ItemSubtotalFloor > p.ItemSubtotalTolerance {
		return fmt.Errorf("item subtotal floor (%g) must not exceed tolerance (%g)",
			p.ItemSubtotalFloor, p.ItemSubtotalTolerance)
	}

	if p.PriceWarnThreshold > p.PriceCriticalThreshold {
		return fmt.Errorf("price warn threshold (%g) must not exceed critical threshold (%g)",
			p.PriceWarnThreshold, p.PriceCriticalThreshold)
	}

	if p.MinUsableConfidence < 0 || p.MinUsableConfidence >= 1 {
		return fmt.Errorf("min usable confidence must be in [0,1), got: %g", p.MinUsableConfidence)
	}

	return nil
}
