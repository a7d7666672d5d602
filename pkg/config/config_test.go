package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test default values
	if config.GitHub.PerPage != 100 {
		t.Errorf("Expected default per page to be 100, got %d", config.GitHub.PerPage)
	}

	if config.GitHub.BaseURL != "https://api.github.com/" {
		t.Errorf("Expected default base URL to be the public API, got %s", config.GitHub.BaseURL)
	}

	if config.Diff.MaxChangedFiles != 50 {
		t.Errorf("Expected default max changed files to be 50, got %d", config.Diff.MaxChangedFiles)
	}

	if config.Storage.DataDir != "./pr_data" {
		t.Errorf("Expected default data directory to be ./pr_data, got %s", config.Storage.DataDir)
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Set test environment variables
	os.Setenv("PRSCRAPER_TOKENS", "ghp_env_one, ghp_env_two")
	os.Setenv("PRSCRAPER_BASE_URL", "https://ghe.example.com/api/v3/")
	os.Setenv("PRSCRAPER_PER_PAGE", "50")
	os.Setenv("PRSCRAPER_DATA_DIR", "/tmp/test-pr-data")
	os.Setenv("PRSCRAPER_LOG_LEVEL", "debug")

	defer func() {
		// Clean up environment variables
		os.Unsetenv("PRSCRAPER_TOKENS")
		os.Unsetenv("PRSCRAPER_BASE_URL")
		os.Unsetenv("PRSCRAPER_PER_PAGE")
		os.Unsetenv("PRSCRAPER_DATA_DIR")
		os.Unsetenv("PRSCRAPER_LOG_LEVEL")
	}()

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	// Test loaded values
	if len(config.GitHub.Tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(config.GitHub.Tokens))
	}
	if config.GitHub.Tokens[0] != "ghp_env_one" || config.GitHub.Tokens[1] != "ghp_env_two" {
		t.Errorf("Unexpected tokens: %v", config.GitHub.Tokens)
	}

	if config.GitHub.BaseURL != "https://ghe.example.com/api/v3/" {
		t.Errorf("Expected base URL from env, got %s", config.GitHub.BaseURL)
	}

	if config.GitHub.PerPage != 50 {
		t.Errorf("Expected per page to be 50, got %d", config.GitHub.PerPage)
	}

	if config.Storage.DataDir != "/tmp/test-pr-data" {
		t.Errorf("Expected data directory to be /tmp/test-pr-data, got %s", config.Storage.DataDir)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.GitHub.Tokens = []string{"ghp_test_token"}
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name: "missing tokens",
			mutate: func(c *Config) {
				c.GitHub.Tokens = nil
				c.GitHub.TokenFile = ""
			},
			wantError: true,
		},
		{
			name: "token file counts as tokens",
			mutate: func(c *Config) {
				c.GitHub.Tokens = nil
				c.GitHub.TokenFile = "/tmp/tokens.txt"
			},
			wantError: false,
		},
		{
			name:      "per page out of range",
			mutate:    func(c *Config) { c.GitHub.PerPage = 500 },
			wantError: true,
		},
		{
			name:      "unordered rate limit sleep bounds",
			mutate:    func(c *Config) { c.Retry.RateLimitSleepMax = 500 * time.Millisecond },
			wantError: true,
		},
		{
			name:      "non-positive hunk limit",
			mutate:    func(c *Config) { c.Diff.MaxHunkBytes = 0 },
			wantError: true,
		},
		{
			name:      "missing data directory",
			mutate:    func(c *Config) { c.Storage.DataDir = "" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"tokens":     []string{"ghp_flag_token"},
		"data-dir":   "/flag/data",
		"log-level":  "error",
		"token-file": "/flag/tokens.txt",
	}

	config.MergeCommandLineFlags(flags)

	// Test merged values
	if len(config.GitHub.Tokens) != 1 || config.GitHub.Tokens[0] != "ghp_flag_token" {
		t.Errorf("Expected flag token, got %v", config.GitHub.Tokens)
	}

	if config.GitHub.TokenFile != "/flag/tokens.txt" {
		t.Errorf("Expected token file to be /flag/tokens.txt, got %s", config.GitHub.TokenFile)
	}

	if config.Storage.DataDir != "/flag/data" {
		t.Errorf("Expected data directory to be /flag/data, got %s", config.Storage.DataDir)
	}

	if config.Logging.Level != "error" {
		t.Errorf("Expected log level to be error, got %s", config.Logging.Level)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	// Create temporary directory for testing
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	// Create a config and save it
	config := DefaultConfig()
	config.GitHub.Tokens = []string{"ghp_save_test"}
	config.GitHub.PerPage = 25
	config.Diff.MaxCodeFiles = 100

	err := config.Save(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Load the saved config
	loadedConfig := DefaultConfig()
	err = loadedConfig.LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if len(loadedConfig.GitHub.Tokens) != 1 || loadedConfig.GitHub.Tokens[0] != "ghp_save_test" {
		t.Errorf("Expected loaded token ghp_save_test, got %v", loadedConfig.GitHub.Tokens)
	}

	if loadedConfig.GitHub.PerPage != 25 {
		t.Errorf("Expected loaded per page to be 25, got %d", loadedConfig.GitHub.PerPage)
	}

	if loadedConfig.Diff.MaxCodeFiles != 100 {
		t.Errorf("Expected loaded max code files to be 100, got %d", loadedConfig.Diff.MaxCodeFiles)
	}
}

func TestReadTokenFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "tokens.txt")

	content := "ghp_one\n\n  ghp_two  \nghp_three\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	tokens, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile failed: %v", err)
	}

	want := []string{"ghp_one", "ghp_two", "ghp_three"}
	if len(tokens) != len(want) {
		t.Fatalf("Expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, token := range want {
		if tokens[i] != token {
			t.Errorf("Token %d: expected %s, got %s", i, token, tokens[i])
		}
	}

	if _, err := ReadTokenFile(filepath.Join(tmpDir, "missing.txt")); err == nil {
		t.Error("Expected error for missing token file")
	}
}

func TestLoadResolvesTokenFile(t *testing.T) {
	tmpDir := t.TempDir()
	tokenPath := filepath.Join(tmpDir, "tokens.txt")
	if err := os.WriteFile(tokenPath, []byte("ghp_from_file\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", map[string]interface{}{
		"token-file": tokenPath,
		"data-dir":   tmpDir,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.GitHub.Tokens) != 1 || cfg.GitHub.Tokens[0] != "ghp_from_file" {
		t.Errorf("Expected token from file, got %v", cfg.GitHub.Tokens)
	}
}
