package diff

import (
	"context"
	"io"
	"net/http"
	"time"

	errs "prscraper/pkg/errors"
	"prscraper/pkg/logger"
	"prscraper/pkg/retry"
)

// Fetcher downloads raw .diff documents and runs the multi-file parser on
// them. GitHub serves these unauthenticated, so no credential pool is
// involved; transient failures get a bounded retry instead.
type Fetcher struct {
	parser     *Parser
	httpClient *http.Client
	retries    int
	logger     logger.Logger
}

// NewFetcher creates a fetcher performing at most retries+1 attempts per URL.
func NewFetcher(parser *Parser, retries int, timeout time.Duration, log logger.Logger) *Fetcher {
	if retries < 0 {
		retries = 0
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		parser:     parser,
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		logger:     log,
	}
}

// SetHTTPClient overrides the underlying HTTP client. Used by tests.
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

// FetchRawDiff downloads the diff at url and parses it into per-file
// statistics.
func (f *Fetcher) FetchRawDiff(ctx context.Context, url string) ([]FileStats, error) {
	text, err := retry.DoWithResult(func() (string, error) {
		return f.download(ctx, url)
	}, &retry.Config{
		MaxAttempts: f.retries + 1,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  f.logger,
	})
	if err != nil {
		return nil, err
	}
	return f.parser.ParseFiles(text), nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errs.New(errs.ErrorTypeConfiguration, 0, "building diff request: %v", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, 0, "fetching diff: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errType := errs.ErrorTypeHTTP
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			errType = errs.ErrorTypeServerError
		}
		return "", errs.New(errType, resp.StatusCode, "diff fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, 0, "reading diff body: %v", err)
	}
	return string(body), nil
}
