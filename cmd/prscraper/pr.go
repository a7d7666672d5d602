package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prscraper/pkg/logger"
	"prscraper/pkg/metadata"
	"prscraper/pkg/scraper"
)

var (
	// PR command flags
	prRenew     bool
	prLocalOnly bool
	prJSON      bool
)

// prCmd represents the pr command
var prCmd = &cobra.Command{
	Use:   "pr <owner/repo> <number>",
	Short: "Fetch and summarize one pull request's code changes",
	Long: `Fetch a single pull request's change statistics.

Local blobs are preferred over the network. With --local the command
fails instead of touching the API at all.`,
	Example: `  # Fetch and summarize one pull
  prscraper pr django/django 12345

  # Only use local data
  prscraper pr django/django 12345 --local

  # Emit the per-file statistics as JSON
  prscraper pr django/django 12345 --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runPR(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prCmd)

	prCmd.Flags().BoolVar(&prRenew, "renew", false, "refresh the pull's detail from the API")
	prCmd.Flags().BoolVar(&prLocalOnly, "local", false, "fail rather than fetch from the network")
	prCmd.Flags().BoolVar(&prJSON, "json", false, "print per-file statistics as JSON")
}

func runPR(cmd *cobra.Command, args []string) {
	repo := strings.TrimSpace(args[0])
	number, err := strconv.Atoi(args[1])
	if err != nil || number <= 0 {
		fmt.Fprintln(os.Stderr, "pull number must be a positive integer")
		os.Exit(1)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	s, store, err := buildScraper(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	if !prLocalOnly {
		tooBig, err := s.CheckTooBig(ctx, repo, number)
		if err != nil {
			log.WithError(err).Warn("size check failed")
		}
		if tooBig {
			fmt.Printf("%s #%d exceeds the size thresholds, not fetching the diff\n", repo, number)
			return
		}
	}

	if prRenew {
		if _, err := s.FetchFileList(ctx, repo, number, true); err != nil {
			log.WithError(err).WithField("number", number).Error("failed to refresh file list")
			os.Exit(1)
		}
	}

	files, err := s.FetchPRCodeInfo(ctx, repo, number, prLocalOnly)
	if err != nil {
		if errors.Is(err, scraper.ErrNotLocal) {
			fmt.Fprintf(os.Stderr, "%s #%d is not cached locally; rerun without --local\n", repo, number)
		} else {
			fmt.Fprintln(os.Stderr, "failed to fetch pull:", err)
		}
		os.Exit(1)
	}

	meta := metadata.FromFileStats(repo, number, files)
	if err := meta.Save(store.PullDir(repo, number)); err != nil {
		log.WithError(err).Warn("failed to write summary")
	}

	if prJSON {
		data, err := json.MarshalIndent(files, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to encode statistics:", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("%s #%d: %d code files, +%d -%d (%s)\n",
		repo, number, meta.FileCount, meta.AddedLOC, meta.DeletedLOC, meta.ChangeShape())
	for _, f := range meta.Files {
		fmt.Printf("  +%-5d -%-5d %s\n", f.AddedLOC, f.DeletedLOC, f.Name)
	}
}
