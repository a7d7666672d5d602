package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the scraper
type Config struct {
	// GitHub API access
	GitHub GitHubConfig `yaml:"github" json:"github"`

	// Retry and backoff behaviour
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Diff parsing limits
	Diff DiffConfig `yaml:"diff" json:"diff"`

	// Local data layout and caching
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// GitHubConfig holds API access configuration
type GitHubConfig struct {
	// Tokens is the static list of API tokens forming the credential pool.
	Tokens []string `yaml:"tokens" json:"tokens"`
	// TokenFile points at a newline-separated token list, read when Tokens is empty.
	TokenFile string        `yaml:"token_file" json:"token_file"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Accept    string        `yaml:"accept" json:"accept"`
	PerPage   int           `yaml:"per_page" json:"per_page"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	// RateLimitSleepMin/Max bound the jittered sleep after a 403 with
	// exhausted quota.
	RateLimitSleepMin time.Duration `yaml:"rate_limit_sleep_min" json:"rate_limit_sleep_min"`
	RateLimitSleepMax time.Duration `yaml:"rate_limit_sleep_max" json:"rate_limit_sleep_max"`
	// ServerErrorSleepMin/Max bound the jittered sleep after a 5xx.
	ServerErrorSleepMin time.Duration `yaml:"server_error_sleep_min" json:"server_error_sleep_min"`
	ServerErrorSleepMax time.Duration `yaml:"server_error_sleep_max" json:"server_error_sleep_max"`
	// FetchRetries is used by the raw-diff fetcher, not the dispatcher.
	FetchRetries int `yaml:"fetch_retries" json:"fetch_retries"`
}

// DiffConfig holds diff parsing limits
type DiffConfig struct {
	// MaxHunkBytes drops any single hunk body larger than this.
	MaxHunkBytes int `yaml:"max_hunk_bytes" json:"max_hunk_bytes"`
	// MaxFileChanges skips patch entries with more changed lines than this.
	MaxFileChanges int `yaml:"max_file_changes" json:"max_file_changes"`
	// MaxChangedFiles and MaxChangedLOC mark a pull request as too big.
	MaxChangedFiles int `yaml:"max_changed_files" json:"max_changed_files"`
	MaxChangedLOC   int `yaml:"max_changed_loc" json:"max_changed_loc"`
	// MaxCodeFiles caps the number of code files kept per pull request.
	MaxCodeFiles int `yaml:"max_code_files" json:"max_code_files"`
}

// StorageConfig holds local data layout and cache configuration
type StorageConfig struct {
	DataDir   string        `yaml:"data_dir" json:"data_dir"`
	CacheSize int           `yaml:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com/",
			Accept:  "application/vnd.github.mockingbird-preview",
			PerPage: 100,
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			RateLimitSleepMin:   1 * time.Second,
			RateLimitSleepMax:   60 * time.Second,
			ServerErrorSleepMin: 1 * time.Second,
			ServerErrorSleepMax: 29 * time.Second,
			FetchRetries:        3,
		},
		Diff: DiffConfig{
			MaxHunkBytes:    100 * 1024,
			MaxFileChanges:  5000,
			MaxChangedFiles: 50,
			MaxChangedLOC:   10000,
			MaxCodeFiles:    500,
		},
		Storage: StorageConfig{
			DataDir:   "./pr_data",
			CacheSize: 1024,
			CacheTTL:  30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if tokens := os.Getenv("PRSCRAPER_TOKENS"); tokens != "" {
		c.GitHub.Tokens = splitTokens(tokens)
	}
	if tokenFile := os.Getenv("PRSCRAPER_TOKEN_FILE"); tokenFile != "" {
		c.GitHub.TokenFile = tokenFile
	}
	if baseURL := os.Getenv("PRSCRAPER_BASE_URL"); baseURL != "" {
		c.GitHub.BaseURL = baseURL
	}
	if perPage := os.Getenv("PRSCRAPER_PER_PAGE"); perPage != "" {
		if val, err := strconv.Atoi(perPage); err == nil && val > 0 {
			c.GitHub.PerPage = val
		}
	}
	if dataDir := os.Getenv("PRSCRAPER_DATA_DIR"); dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if logLevel := os.Getenv("PRSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

func splitTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".prscraper.yaml",
		".prscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "prscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "prscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".prscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// ReadTokenFile reads a newline-separated token list, skipping blank lines.
func ReadTokenFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tokens []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			tokens = append(tokens, line)
		}
	}
	return tokens, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.GitHub.Tokens) == 0 && c.GitHub.TokenFile == "" {
		errs = append(errs, errors.New("at least one API token or a token file is required"))
	}
	if c.GitHub.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > 100 {
		errs = append(errs, errors.New("per_page must be between 1 and 100"))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Retry.RateLimitSleepMin <= 0 || c.Retry.RateLimitSleepMax < c.Retry.RateLimitSleepMin {
		errs = append(errs, errors.New("rate limit sleep bounds must be positive and ordered"))
	}
	if c.Retry.ServerErrorSleepMin <= 0 || c.Retry.ServerErrorSleepMax < c.Retry.ServerErrorSleepMin {
		errs = append(errs, errors.New("server error sleep bounds must be positive and ordered"))
	}

	if c.Diff.MaxHunkBytes <= 0 {
		errs = append(errs, errors.New("max hunk bytes must be positive"))
	}
	if c.Diff.MaxChangedFiles <= 0 || c.Diff.MaxChangedLOC <= 0 {
		errs = append(errs, errors.New("too-big thresholds must be positive"))
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Storage.CacheSize <= 0 {
		errs = append(errs, errors.New("cache size must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if tokens, ok := flags["tokens"].([]string); ok && len(tokens) > 0 {
		c.GitHub.Tokens = tokens
	}
	if tokenFile, ok := flags["token-file"].(string); ok && tokenFile != "" {
		c.GitHub.TokenFile = tokenFile
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Storage.DataDir = dataDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".prscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	// Resolve the token file before validation so an empty token list with
	// a valid file still produces a usable pool.
	if len(config.GitHub.Tokens) == 0 && config.GitHub.TokenFile != "" {
		tokens, err := ReadTokenFile(config.GitHub.TokenFile)
		if err != nil {
			return nil, err
		}
		config.GitHub.Tokens = tokens
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
