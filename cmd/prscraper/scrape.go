package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prscraper/internal/fetcher"
	"prscraper/pkg/checkpoint"
	"prscraper/pkg/logger"
	"prscraper/pkg/metadata"
)

var (
	// Scrape command flags
	renewLists   bool
	workers      int
	forceRestart bool
	skipTooBig   bool
	maxPulls     int
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <owner/repo>",
	Short: "Fetch all pull requests and their diffs from a repository",
	Long: `Fetch the pull request list of a repository and the per-file change
statistics of every pull in it.

Tokens are resolved in order from:
  - Stored token sets (use 'prscraper tokens add' to store)
  - Environment variables (PRSCRAPER_TOKENS, PRSCRAPER_TOKEN_FILE)
  - Configuration file

Everything fetched is kept under the data directory, and an interrupted
run resumes from its checkpoint.`,
	Example: `  # Fetch all pulls using default settings
  prscraper scrape django/django

  # Refresh the pull list and use more workers
  prscraper scrape django/django --renew --workers 8

  # Start over, ignoring the existing checkpoint
  prscraper scrape django/django --force-restart`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVar(&renewLists, "renew", false, "refresh the pull list from the API")
	scrapeCmd.Flags().IntVar(&workers, "workers", 3, "number of concurrent fetch workers")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore the existing checkpoint and start over")
	scrapeCmd.Flags().BoolVar(&skipTooBig, "skip-too-big", true, "skip pulls above the size thresholds")
	scrapeCmd.Flags().IntVar(&maxPulls, "max-pulls", 0, "stop after this many pulls (0 means all)")
}

// checkpointProgress adapts the checkpoint manager to the worker pool.
type checkpointProgress struct {
	manager    *checkpoint.Manager
	checkpoint *checkpoint.Checkpoint
}

func (p *checkpointProgress) Done(number int) bool {
	return p.checkpoint.IsPullFetched(number)
}

func (p *checkpointProgress) Record(number int) error {
	return p.manager.RecordPull(p.checkpoint, number)
}

func runScrape(cmd *cobra.Command, args []string) {
	repo := strings.TrimSpace(args[0])
	if !strings.Contains(repo, "/") {
		fmt.Fprintln(os.Stderr, "repository must be given as owner/name")
		os.Exit(1)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		fmt.Fprintln(os.Stderr, "\nTo store tokens securely, run:\n  prscraper tokens add")
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("prscraper starting")

	s, store, err := buildScraper(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	manager, err := checkpoint.NewManager(cfg.Storage.DataDir, repo)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open checkpoint:", err)
		os.Exit(1)
	}
	if forceRestart {
		if err := manager.Delete(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove checkpoint:", err)
			os.Exit(1)
		}
	}
	cp, err := manager.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load checkpoint:", err)
		os.Exit(1)
	}
	if cp == nil {
		cp, err = manager.Create(repo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to create checkpoint:", err)
			os.Exit(1)
		}
	} else {
		log.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
			"repo":    repo,
			"fetched": cp.TotalFetched,
		})
	}

	pulls, err := s.PullList(ctx, repo, renewLists)
	if err != nil {
		log.WithError(err).WithField("repo", repo).Error("failed to fetch pull list")
		os.Exit(1)
	}
	if maxPulls > 0 && len(pulls) > maxPulls {
		pulls = pulls[:maxPulls]
	}

	cp.TotalQueued = len(pulls)
	if err := manager.Save(cp); err != nil {
		log.WithError(err).Warn("failed to persist checkpoint")
	}

	log.InfoWithFields("Starting scrape", map[string]interface{}{
		"repo":    repo,
		"pulls":   len(pulls),
		"workers": workers,
	})

	pool := fetcher.NewWorkerPool(workers, s, &checkpointProgress{manager, cp}, log)
	pool.Start()

	var succeeded, failed, skipped int
	var fetched []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			switch {
			case result.Skipped:
				skipped++
			case result.Success:
				succeeded++
				fetched = append(fetched, result.Job.Number)
			default:
				failed++
				log.WithError(result.Error).WithField("number", result.Job.Number).Warn("pull fetch failed")
			}
		}
	}()

	submitted := 0
	for _, pull := range pulls {
		// Already fetched pulls still go through the pool so they are
		// counted as skipped.
		if skipTooBig && !cp.IsPullFetched(pull.Number) {
			tooBig, err := s.CheckTooBig(ctx, repo, pull.Number)
			if err != nil {
				log.WithError(err).WithField("number", pull.Number).Warn("size check failed")
			}
			if tooBig {
				log.WithField("number", pull.Number).Info("skipping oversized pull")
				continue
			}
		}
		if err := pool.Submit(fetcher.FetchJob{Repo: repo, Number: pull.Number}); err != nil {
			log.WithError(err).Error("failed to submit job")
			break
		}
		submitted++
	}

	pool.Stop()
	<-done

	// Summaries come from the local blobs written by the workers.
	for _, number := range fetched {
		files, err := s.FetchPRCodeInfo(ctx, repo, number, true)
		if err != nil {
			continue
		}
		meta := metadata.FromFileStats(repo, number, files)
		if err := meta.Save(store.PullDir(repo, number)); err != nil {
			log.WithError(err).WithField("number", number).Warn("failed to write summary")
		}
	}

	log.InfoWithFields("Scrape finished", map[string]interface{}{
		"repo":      repo,
		"submitted": submitted,
		"succeeded": succeeded,
		"skipped":   skipped,
		"failed":    failed,
	})

	fmt.Printf("\n%s: %d pulls fetched, %d already local, %d failed\n", repo, succeeded, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
