package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"prscraper/pkg/auth"
	"prscraper/pkg/config"
	"prscraper/pkg/github"
	"prscraper/pkg/logger"
	"prscraper/pkg/scraper"
	"prscraper/pkg/storage"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
	tokenFile  string
	tokenLabel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prscraper",
	Short: "A resilient scraper for pull request code changes",
	Long: `prscraper collects pull requests, their discussion and their diffs from
the GitHub API and turns raw patches into per-file change statistics.

Features:
  - Token pool with per-class rate limit bookkeeping and rotation
  - Cache-first fetching so nothing is downloaded twice
  - Tolerant unified diff parsing with per-hunk validation
  - Concurrent per-pull fetching with checkpointed resume
  - Secure token storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .prscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "root directory for fetched data")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "newline-separated GitHub token list")
	rootCmd.PersistentFlags().StringVarP(&tokenLabel, "tokens", "t", "", "use a specific stored token set")

	// Version template
	rootCmd.SetVersionTemplate(`prscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags into a config override map.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if tokenFile != "" {
		flags["token-file"] = tokenFile
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadConfig loads configuration, falling back to securely stored token
// sets when neither flags, environment nor config file provide tokens.
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err == nil {
		return cfg, nil
	}

	tokens := storedTokens()
	if len(tokens) == 0 {
		return nil, err
	}

	flags["tokens"] = tokens
	return config.Load(configFile, flags)
}

// storedTokens retrieves tokens from the credential manager, preferring
// the set named by --tokens.
func storedTokens() []string {
	manager, err := auth.NewManager()
	if err != nil {
		return nil
	}

	var set *auth.TokenSet
	if tokenLabel != "" {
		set, err = manager.Retrieve(tokenLabel)
	} else {
		set, err = manager.RetrieveDefault()
	}
	if err != nil || set == nil {
		return nil
	}
	return set.Tokens
}

// buildScraper wires the credential pool, dispatcher, client and blob
// store into a ready scraper.
func buildScraper(cfg *config.Config) (*scraper.Scraper, *storage.Store, error) {
	log := logger.GetLogger()

	pool, err := github.NewPool(cfg.GitHub.Tokens, cfg.GitHub.Timeout, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build credential pool: %w", err)
	}

	dispatcher := github.NewDispatcher(pool, cfg, log)
	client := github.NewClient(dispatcher, log)

	store, err := storage.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	s, err := scraper.New(client, store, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}
	return s, store, nil
}
