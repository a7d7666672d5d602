package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"prscraper/pkg/diff"
	"prscraper/pkg/logger"
)

// FetchJob represents a single pull request artifact fetch task
type FetchJob struct {
	Repo   string
	Number int
}

// FetchResult represents the result of a fetch job
type FetchResult struct {
	Job      FetchJob
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Files    int
}

// FileListFetcher fetches one pull request's diff statistics
type FileListFetcher interface {
	FetchFileList(ctx context.Context, repo string, number int, renew bool) ([]diff.FileStats, error)
}

// Progress tracks which pull requests are already done
type Progress interface {
	Done(number int) bool
	Record(number int) error
}

// WorkerPool manages concurrent pull request fetch workers. The request
// dispatcher underneath already serializes against rate limits, so workers
// mostly overlap network latency, not quota.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan FetchJob
	resultQueue chan FetchResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     FileListFetcher
	progress    Progress
	logger      logger.Logger
}

// NewWorkerPool creates a new fetch worker pool
func NewWorkerPool(
	numWorkers int,
	fetcher FileListFetcher,
	progress Progress,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan FetchJob, numWorkers*2),
		resultQueue: make(chan FetchResult, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		progress:    progress,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() {
	wp.logger.Info("Stopping worker pool...")

	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Worker pool stopped")
}

// Submit adds a new fetch job to the queue
func (wp *WorkerPool) Submit(job FetchJob) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"repo":   job.Repo,
			"number": job.Number,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming fetch results
func (wp *WorkerPool) Results() <-chan FetchResult {
	return wp.resultQueue
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single fetch job
func (wp *WorkerPool) processJob(job FetchJob, workerID int) FetchResult {
	start := time.Now()
	result := FetchResult{Job: job}

	if wp.progress != nil && wp.progress.Done(job.Number) {
		wp.logger.DebugWithFields("Pull request already fetched", map[string]interface{}{
			"worker_id": workerID,
			"repo":      job.Repo,
			"number":    job.Number,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	files, err := wp.fetcher.FetchFileList(wp.ctx, job.Repo, job.Number, false)
	if err != nil {
		result.Error = fmt.Errorf("fetch failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to fetch file list", map[string]interface{}{
			"worker_id": workerID,
			"repo":      job.Repo,
			"number":    job.Number,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
		return result
	}

	result.Files = len(files)

	if wp.progress != nil {
		if err := wp.progress.Record(job.Number); err != nil {
			result.Error = fmt.Errorf("progress update failed: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"repo":      job.Repo,
		"number":    job.Number,
		"files":     result.Files,
		"duration":  result.Duration,
	})

	return result
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// GetActiveWorkers returns the number of active workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
