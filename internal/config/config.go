// Package config provides configuration management for the scholar pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/scholarpipe/scholarpipe/internal/scoring"
)

// Config holds all configuration for the scholar pipeline.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// SerpAPI contains the Google Scholar search provider settings.
	SerpAPI SerpAPIConfig `mapstructure:"serpapi"`
	// Scoring contains paper scoring settings.
	Scoring ScoringConfig `mapstructure:"scoring"`
	// PDF contains PDF location and download settings.
	PDF PDFConfig `mapstructure:"pdf"`
	// Pipeline contains end-to-end run settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the Prometheus metric namespace.
	Namespace string `mapstructure:"namespace"`
}

// SerpAPIConfig holds the Google Scholar search provider configuration.
type SerpAPIConfig struct {
	// APIKey is the SerpApi key (loaded from SCHOLARPIPE_SERPAPI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// BaseURL is the SerpApi endpoint URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum papers gathered per search.
	MaxResults int `mapstructure:"max_results"`
}

// ScoringConfig holds paper scoring configuration.
type ScoringConfig struct {
	// Field selects the prestigious-venue list (computer_science, biology,
	// physics, chemistry).
	Field string `mapstructure:"field"`
	// Weights are the scoring component weights.
	Weights scoring.Weights `mapstructure:"weights"`
}

// PDFConfig holds PDF location and download configuration.
type PDFConfig struct {
	// DownloadDir is the directory where PDFs are stored.
	DownloadDir string `mapstructure:"download_dir"`
	// DownloadTimeout is the timeout for one PDF download.
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	// LocateTimeout is the timeout for one landing-page fetch.
	LocateTimeout time.Duration `mapstructure:"locate_timeout"`
	// MaxSizeBytes is the maximum accepted PDF size in bytes.
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// UserAgent is the User-Agent for PDF location and download requests.
	UserAgent string `mapstructure:"user_agent"`
}

// PipelineConfig holds end-to-end run configuration.
type PipelineConfig struct {
	// NumResults is the default number of papers gathered per run.
	NumResults int `mapstructure:"num_results"`
	// TopK is the default number of top-ranked papers whose PDFs are downloaded.
	TopK int `mapstructure:"top_k"`
	// DownloadDelay is the pause between consecutive PDF downloads.
	DownloadDelay time.Duration `mapstructure:"download_delay"`
	// FetchContent enables landing-page text extraction.
	FetchContent bool `mapstructure:"fetch_content"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("SCHOLARPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scholarpipe")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.SerpAPI.APIKey = os.Getenv("SCHOLARPIPE_SERPAPI_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "scholarpipe")

	// SerpApi defaults
	// The API key is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("serpapi.base_url", "https://serpapi.com/search")
	v.SetDefault("serpapi.timeout", "30s")
	v.SetDefault("serpapi.rate_limit", 1.0)
	v.SetDefault("serpapi.max_results", 20)

	// Scoring defaults
	v.SetDefault("scoring.field", "computer_science")
	v.SetDefault("scoring.weights.relevance", 0.4)
	v.SetDefault("scoring.weights.venue", 0.35)
	v.SetDefault("scoring.weights.recency", 0.25)

	// PDF defaults
	v.SetDefault("pdf.download_dir", "papers")
	v.SetDefault("pdf.download_timeout", "30s")
	v.SetDefault("pdf.locate_timeout", "10s")
	v.SetDefault("pdf.max_size_bytes", 100*1024*1024)
	v.SetDefault("pdf.user_agent", "")

	// Pipeline defaults
	v.SetDefault("pipeline.num_results", 20)
	v.SetDefault("pipeline.top_k", 5)
	v.SetDefault("pipeline.download_delay", "2s")
	v.SetDefault("pipeline.fetch_content", false)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate scoring weights. Zero weights are allowed; the engine falls
	// back to its defaults when all three are zero.
	if c.Scoring.Weights.Relevance < 0 || c.Scoring.Weights.Venue < 0 || c.Scoring.Weights.Recency < 0 {
		return fmt.Errorf("scoring weights must not be negative")
	}

	// Validate search limits
	if c.SerpAPI.MaxResults <= 0 {
		return fmt.Errorf("serpapi max_results must be positive")
	}
	if c.SerpAPI.RateLimit <= 0 {
		return fmt.Errorf("serpapi rate_limit must be positive")
	}

	// Validate PDF settings
	if c.PDF.MaxSizeBytes <= 0 {
		return fmt.Errorf("pdf max_size_bytes must be positive")
	}

	// Validate pipeline settings. The API key is deliberately not required
	// here: it is only needed once a search actually runs.
	if c.Pipeline.NumResults <= 0 {
		return fmt.Errorf("pipeline num_results must be positive")
	}
	if c.Pipeline.TopK < 0 {
		return fmt.Errorf("pipeline top_k must not be negative")
	}

	return nil
}
