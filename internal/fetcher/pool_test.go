package fetcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prscraper/pkg/checkpoint"
	"prscraper/pkg/diff"
)

// MockFetcher is a mock implementation of the file list fetcher
type MockFetcher struct {
	fetchDelay   time.Duration
	fetchError   error
	fetchCounter int32
}

func (m *MockFetcher) FetchFileList(ctx context.Context, repo string, number int, renew bool) ([]diff.FileStats, error) {
	atomic.AddInt32(&m.fetchCounter, 1)
	if m.fetchDelay > 0 {
		time.Sleep(m.fetchDelay)
	}
	if m.fetchError != nil {
		return nil, m.fetchError
	}
	return []diff.FileStats{{Name: "main.go", AddedLOC: 1}}, nil
}

func (m *MockFetcher) GetFetchCount() int {
	return int(atomic.LoadInt32(&m.fetchCounter))
}

// MockProgress is a mock implementation of the progress tracker
type MockProgress struct {
	fetched     map[int]bool
	recordError error
	mu          sync.Mutex
}

func NewMockProgress() *MockProgress {
	return &MockProgress{
		fetched: make(map[int]bool),
	}
}

func (m *MockProgress) Done(number int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetched[number]
}

func (m *MockProgress) Record(number int) error {
	if m.recordError != nil {
		return m.recordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched[number] = true
	return nil
}

func (m *MockProgress) GetRecordedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetched)
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	mockFetcher := &MockFetcher{fetchDelay: 10 * time.Millisecond}
	mockProgress := NewMockProgress()

	pool := NewWorkerPool(3, mockFetcher, mockProgress, nil)
	pool.Start()

	// Collect results
	var results []FetchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	// Submit jobs
	numJobs := 10
	for i := 0; i < numJobs; i++ {
		job := FetchJob{Repo: "octocat/hello", Number: i + 1}
		err := pool.Submit(job)
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	// Stop pool and wait for results
	pool.Stop()
	wg.Wait()

	if len(results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(results))
	}

	successCount := 0
	for _, result := range results {
		if result.Success {
			successCount++
		}
		if result.Success && !result.Skipped && result.Files != 1 {
			t.Errorf("Expected 1 file in result for #%d, got %d", result.Job.Number, result.Files)
		}
	}

	if successCount != numJobs {
		t.Errorf("Expected %d successful fetches, got %d", numJobs, successCount)
	}

	if mockFetcher.GetFetchCount() != numJobs {
		t.Errorf("Expected %d fetch calls, got %d", numJobs, mockFetcher.GetFetchCount())
	}

	if mockProgress.GetRecordedCount() != numJobs {
		t.Errorf("Expected %d recorded pulls, got %d", numJobs, mockProgress.GetRecordedCount())
	}
}

func TestWorkerPoolWithErrors(t *testing.T) {
	mockFetcher := &MockFetcher{
		fetchError: fmt.Errorf("fetch error"),
	}
	mockProgress := NewMockProgress()

	pool := NewWorkerPool(2, mockFetcher, mockProgress, nil)
	pool.Start()

	// Collect results
	var results []FetchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 5
	for i := 0; i < numJobs; i++ {
		job := FetchJob{Repo: "octocat/hello", Number: i + 1}
		err := pool.Submit(job)
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	// Verify all jobs failed
	if len(results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(results))
	}

	for _, result := range results {
		if result.Success {
			t.Error("Expected all fetches to fail")
		}
		if result.Error == nil {
			t.Error("Expected error in result")
		}
	}

	if mockProgress.GetRecordedCount() != 0 {
		t.Errorf("Expected no recorded pulls, got %d", mockProgress.GetRecordedCount())
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	// Delay per job to make serial execution visibly slower
	mockFetcher := &MockFetcher{fetchDelay: 100 * time.Millisecond}
	mockProgress := NewMockProgress()

	pool := NewWorkerPool(5, mockFetcher, mockProgress, nil)
	pool.Start()

	var results []FetchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 10
	startTime := time.Now()

	for i := 0; i < numJobs; i++ {
		job := FetchJob{Repo: "octocat/hello", Number: i + 1}
		err := pool.Submit(job)
		if err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	elapsed := time.Since(startTime)

	// With 5 workers and 10 jobs taking 100ms each, it should take ~200ms
	// Allow some buffer for overhead
	expectedTime := 300 * time.Millisecond
	if elapsed > expectedTime {
		t.Errorf("Fetches took too long: %v (expected < %v)", elapsed, expectedTime)
	}

	if len(results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(results))
	}
}

// checkpointedProgress mirrors the adapter the scrape command uses, so
// this test exercises the real checkpoint under worker concurrency.
type checkpointedProgress struct {
	manager    *checkpoint.Manager
	checkpoint *checkpoint.Checkpoint
}

func (p *checkpointedProgress) Done(number int) bool {
	return p.checkpoint.IsPullFetched(number)
}

func (p *checkpointedProgress) Record(number int) error {
	return p.manager.RecordPull(p.checkpoint, number)
}

func TestWorkerPoolCheckpointedProgress(t *testing.T) {
	repo := "octocat/hello"
	mgr, err := checkpoint.NewManager(t.TempDir(), repo)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	cp, err := mgr.Create(repo)
	if err != nil {
		t.Fatalf("Failed to create checkpoint: %v", err)
	}

	mockFetcher := &MockFetcher{}
	pool := NewWorkerPool(8, mockFetcher, &checkpointedProgress{mgr, cp}, nil)
	pool.Start()

	var results []FetchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	numJobs := 500
	for i := 0; i < numJobs; i++ {
		job := FetchJob{Repo: repo, Number: i + 1}
		if err := pool.Submit(job); err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	pool.Stop()
	wg.Wait()

	if len(results) != numJobs {
		t.Errorf("Expected %d results, got %d", numJobs, len(results))
	}
	for _, result := range results {
		if !result.Success {
			t.Errorf("Fetch for #%d failed: %v", result.Job.Number, result.Error)
		}
	}
	if cp.TotalFetched != numJobs {
		t.Errorf("Expected %d fetched pulls recorded, got %d", numJobs, cp.TotalFetched)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Failed to reload checkpoint: %v", err)
	}
	if len(loaded.FetchedPulls) != numJobs {
		t.Errorf("Expected %d pulls on disk, got %d", numJobs, len(loaded.FetchedPulls))
	}
}

func TestWorkerPoolSkipsFetchedPulls(t *testing.T) {
	mockFetcher := &MockFetcher{}
	mockProgress := NewMockProgress()

	// Pre-populate already fetched pulls
	mockProgress.fetched[2] = true
	mockProgress.fetched[4] = true

	pool := NewWorkerPool(2, mockFetcher, mockProgress, nil)
	pool.Start()

	var results []FetchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	jobs := []FetchJob{
		{Repo: "octocat/hello", Number: 1},
		{Repo: "octocat/hello", Number: 2},
		{Repo: "octocat/hello", Number: 3},
		{Repo: "octocat/hello", Number: 4},
	}

	for _, job := range jobs {
		err := pool.Submit(job)
		if err != nil {
			t.Errorf("Failed to submit job: %v", err)
		}
	}

	pool.Stop()
	wg.Wait()

	// Should have results for all jobs
	if len(results) != len(jobs) {
		t.Errorf("Expected %d results, got %d", len(jobs), len(results))
	}

	skipped := 0
	for _, result := range results {
		if result.Skipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Errorf("Expected 2 skipped jobs, got %d", skipped)
	}

	// Only new pulls should have hit the network
	expectedFetches := 2
	if mockFetcher.GetFetchCount() != expectedFetches {
		t.Errorf("Expected %d fetches, got %d", expectedFetches, mockFetcher.GetFetchCount())
	}

	// Total recorded should be 4 (2 existing + 2 new)
	if mockProgress.GetRecordedCount() != 4 {
		t.Errorf("Expected 4 recorded pulls, got %d", mockProgress.GetRecordedCount())
	}
}
