package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage prscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (PRSCRAPER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.prscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Token values are masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".prscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(os.Stderr, "configuration file already exists:", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# prscraper configuration file
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with PRSCRAPER_
# For example: PRSCRAPER_TOKENS, PRSCRAPER_DATA_DIR

# GitHub API access
github:
  # Static token list. Leave empty to use stored token sets
  # ('prscraper tokens add') or PRSCRAPER_TOKENS.
  tokens: []

  # Newline-separated token list, read when tokens is empty
  token_file: ""

  # API root
  base_url: "https://api.github.com/"

  # Items per page for list endpoints
  # Range: 1-100
  per_page: 100

  # Per-request timeout
  timeout: 30s

# Retry and backoff behaviour
retry:
  # Jittered sleep bounds after a 403 with exhausted quota
  rate_limit_sleep_min: 1s
  rate_limit_sleep_max: 60s

  # Jittered sleep bounds after a 5xx
  server_error_sleep_min: 1s
  server_error_sleep_max: 29s

  # Retries for raw diff downloads
  fetch_retries: 3

# Diff parsing limits
diff:
  # Drop any single hunk body larger than this
  max_hunk_bytes: 102400

  # Skip patch entries with more changed lines than this
  max_file_changes: 5000

  # A pull is too big past either of these
  max_changed_files: 50
  max_changed_loc: 10000

  # Cap on kept code files per pull
  max_code_files: 500

# Local data layout and caching
storage:
  # Root directory for fetched blobs and checkpoints
  data_dir: "./pr_data"

  # In-memory file list cache
  cache_size: 1024
  cache_ttl: 30m

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		fmt.Fprintln(os.Stderr, "failed to create configuration file:", err)
		os.Exit(1)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add tokens with 'prscraper tokens add' or fill in the tokens list")
	fmt.Println("2. Run 'prscraper config validate' to check the configuration")
	fmt.Println("3. Start fetching with 'prscraper scrape <owner/repo>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	// Mask token values before display
	displayCfg := *cfg
	displayCfg.GitHub.Tokens = make([]string, len(cfg.GitHub.Tokens))
	for i, token := range cfg.GitHub.Tokens {
		if len(token) > 8 {
			displayCfg.GitHub.Tokens[i] = token[:4] + "..." + token[len(token)-4:]
		} else {
			displayCfg.GitHub.Tokens[i] = "***"
		}
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to format configuration:", err)
		os.Exit(1)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (PRSCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Stored token sets")
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			".prscraper.yaml",
			".prscraper.yml",
			filepath.Join(os.Getenv("HOME"), ".prscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "prscraper", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			fmt.Fprintln(os.Stderr, "no configuration file found; specify one with --config")
			os.Exit(1)
		}
	}

	fmt.Println("Validating configuration:", configFile)

	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration validation failed:", err)
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if len(cfg.GitHub.Tokens) == 1 {
		warnings = append(warnings, "only one token configured; more tokens multiply the rate limit")
	}

	if cfg.Storage.DataDir != "" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if cfg.Diff.MaxFileChanges <= 0 {
		errors = append(errors, "max_file_changes must be positive")
	}
	if cfg.Retry.FetchRetries < 0 || cfg.Retry.FetchRetries > 10 {
		errors = append(errors, "fetch_retries must be between 0 and 10")
	}

	if len(errors) > 0 {
		fmt.Fprintln(os.Stderr, "configuration has errors:")
		for _, err := range errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		fmt.Println("configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	fmt.Println("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Tokens: %d\n", len(cfg.GitHub.Tokens))
	fmt.Printf("  Data directory: %s\n", cfg.Storage.DataDir)
	fmt.Printf("  Per page: %d\n", cfg.GitHub.PerPage)
	fmt.Printf("  Fetch retries: %d\n", cfg.Retry.FetchRetries)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
