package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"prscraper/pkg/diff"
	"prscraper/pkg/logger"
)

var (
	// Diff command flags
	diffMaxHunkBytes int
	diffJSON         bool
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <file-or-url>",
	Short: "Parse a unified diff into per-file change statistics",
	Long: `Parse raw unified diff text into per-file and per-hunk statistics.

The argument is either a local patch file or an http(s) URL pointing at
one. Malformed hunks are dropped individually; the rest of the patch
still parses.`,
	Example: `  # Parse a local patch file
  prscraper diff fix.patch

  # Fetch and parse a pull request diff
  prscraper diff https://github.com/django/django/pull/12345.diff

  # Emit JSON instead of the table
  prscraper diff fix.patch --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runDiff(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().IntVar(&diffMaxHunkBytes, "max-hunk-bytes", 0, "drop hunks larger than this (0 uses the configured limit)")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "print statistics as JSON")
}

func runDiff(cmd *cobra.Command, args []string) {
	target := strings.TrimSpace(args[0])

	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	maxHunkBytes := cfg.Diff.MaxHunkBytes
	if diffMaxHunkBytes > 0 {
		maxHunkBytes = diffMaxHunkBytes
	}
	parser := diff.NewParser(maxHunkBytes, log)

	var stats []diff.FileStats
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		fetcher := diff.NewFetcher(parser, cfg.Retry.FetchRetries, cfg.GitHub.Timeout, log)
		stats, err = fetcher.FetchRawDiff(context.Background(), target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to fetch diff:", err)
			os.Exit(1)
		}
	} else {
		data, err := os.ReadFile(target)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read patch file:", err)
			os.Exit(1)
		}
		text := string(data)
		stats = parser.ParseFiles(text)
		if len(stats) == 0 {
			// A bare patch without file boundaries still parses as one file.
			st := parser.Parse(filepath.Base(target), text)
			if st.AddedLOC > 0 || st.DeletedLOC > 0 {
				stats = append(stats, st)
			}
		}
	}

	if diffJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to encode statistics:", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	var added, deleted int
	for _, st := range stats {
		fmt.Printf("  +%-5d -%-5d %s\n", st.AddedLOC, st.DeletedLOC, st.Name)
		added += st.AddedLOC
		deleted += st.DeletedLOC
	}
	fmt.Printf("%d files, +%d -%d\n", len(stats), added, deleted)
}
