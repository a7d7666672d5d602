package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prscraper/pkg/config"
	errs "prscraper/pkg/errors"
	"prscraper/pkg/logger"
	"prscraper/pkg/retry"
)

// Outcome classifies a terminal dispatcher result.
type Outcome int

const (
	// OutcomeSuccess means the request produced a body (possibly empty).
	OutcomeSuccess Outcome = iota
	// OutcomeSoftEmpty means the resource is legitimately absent or
	// unavailable (404/409/410/451) and the result body is empty. This is
	// a valid terminal state, not a failure.
	OutcomeSoftEmpty
)

// Result is what Execute hands back. For paginated calls Items carries the
// accumulated array elements of every fetched page, in order; a fatal error
// mid-pagination still returns the pages fetched so far alongside the error.
type Result struct {
	Outcome Outcome
	Body    []byte
	Items   []json.RawMessage
	Pages   int
}

// Empty reports whether the result carries no data.
func (r *Result) Empty() bool {
	return len(r.Body) == 0 && len(r.Items) == 0
}

// Decode unmarshals the single-request body into target. A SoftEmpty
// result leaves target untouched.
func (r *Result) Decode(target interface{}) error {
	if r.Outcome == OutcomeSoftEmpty || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return errs.New(errs.ErrorTypeParsing, 0, "failed to decode response body: %v", err)
	}
	return nil
}

// Combined re-encodes the accumulated page items as one JSON array, for
// callers that persist the aggregate as a single blob.
func (r *Result) Combined() []byte {
	if r.Items == nil {
		return []byte("[]")
	}
	data, err := json.Marshal(r.Items)
	if err != nil {
		return []byte("[]")
	}
	return data
}

// Dispatcher drives a single logical request, optionally paginated, to
// completion using the credential pool. It hides rate-limit exhaustion and
// transient failures from the caller; the only unbounded wait is the
// pool-exhaustion sleep, bounded externally via the context.
type Dispatcher struct {
	pool    *Pool
	logger  logger.Logger
	perPage int

	rateLimitSleep retry.BackoffStrategy
	serverErrSleep retry.BackoffStrategy

	// now and wait are injection points for deterministic tests.
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher over a pool.
func NewDispatcher(pool *Pool, cfg *config.Config, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Dispatcher{
		pool:    pool,
		logger:  log,
		perPage: cfg.GitHub.PerPage,
		rateLimitSleep: &retry.UniformBackoff{
			Min: cfg.Retry.RateLimitSleepMin,
			Max: cfg.Retry.RateLimitSleepMax,
		},
		serverErrSleep: &retry.UniformBackoff{
			Min: cfg.Retry.ServerErrorSleepMin,
			Max: cfg.Retry.ServerErrorSleepMax,
		},
		now:  time.Now,
		wait: retry.Wait,
	}
}

// SetClock overrides the dispatcher's clock and wait primitive for tests.
func (d *Dispatcher) SetClock(now func() time.Time, wait func(ctx context.Context, delay time.Duration) error) {
	if now != nil {
		d.now = now
	}
	if wait != nil {
		d.wait = wait
	}
}

// Pool returns the underlying credential pool.
func (d *Dispatcher) Pool() *Pool {
	return d.pool
}

// Execute drives req to a terminal state. With paginate set, it follows
// rel="next" links accumulating each page's array elements into
// Result.Items; otherwise Result.Body holds the raw response body.
func (d *Dispatcher) Execute(ctx context.Context, req Request, paginate bool) (*Result, error) {
	class := req.Class()
	res := &Result{Outcome: OutcomeSuccess}

	page := 1
	if paginate {
		req = req.WithParam("per_page", strconv.Itoa(d.perPage)).WithParam("page", strconv.Itoa(page))
		res.Items = []json.RawMessage{}
	}

	// Network failures and 5xx responses are each allowed one trip around
	// the pool before escalating; a healthy pool resets both counters on
	// the next 2xx.
	timeoutCount := 0
	serverErrCount := 0

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		cred := d.pool.PickReady(class, d.now())
		if cred == nil {
			until := d.pool.EarliestReadyAt(class, d.now())
			delay := until.Sub(d.now()) + time.Second
			d.logger.InfoWithFields("credential pool exhausted, waiting for quota reset", map[string]interface{}{
				"class":    string(class),
				"endpoint": req.Endpoint,
				"delay":    delay,
			})
			if err := d.wait(ctx, delay); err != nil {
				return res, err
			}
			continue
		}

		resp, err := cred.Do(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			timeoutCount++
			if timeoutCount > d.pool.Size() {
				d.logger.ErrorWithFields("request failed on every credential", map[string]interface{}{
					"endpoint": req.Endpoint,
					"failures": timeoutCount,
				})
				return res, errs.New(errs.ErrorTypeNetwork, 0,
					"request to %s failed across the whole pool: %v", req.Endpoint, err)
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			timeoutCount++
			if timeoutCount > d.pool.Size() {
				return res, errs.New(errs.ErrorTypeNetwork, 0,
					"reading response from %s failed across the whole pool: %v", req.Endpoint, readErr)
			}
			continue
		}

		status := resp.StatusCode
		switch {
		case status >= 200 && status < 300:
			timeoutCount = 0
			serverErrCount = 0

			if !paginate {
				res.Body = body
				res.Pages = 1
				return res, nil
			}

			items, err := decodeItems(body)
			if err != nil {
				// Pages fetched so far stay in res.
				return res, err
			}
			res.Items = append(res.Items, items...)
			res.Pages++

			if len(items) == 0 || !hasNextLink(resp.Header) {
				return res, nil
			}
			page++
			req = req.WithParam("page", strconv.Itoa(page))

		case status == http.StatusUnauthorized:
			// The credential stays in the pool; removing invalid tokens is
			// an out-of-band operation.
			d.logger.WarnWithFields("bad credential, reselecting", map[string]interface{}{
				"credential": cred.String(),
				"endpoint":   req.Endpoint,
			})

		case status == http.StatusForbidden:
			remaining, _, _, observed := cred.Tracker(class).Snapshot()
			if observed && remaining > 0 {
				// Forbidden with quota left is not a rate limit.
				return res, errs.New(errs.ErrorTypeHTTP, status,
					"forbidden response for %s with quota remaining", req.Endpoint)
			}
			if !observed {
				cred.Tracker(class).Exhaust(d.now().Add(time.Minute))
			}
			delay := d.rateLimitSleep.NextDelay(1)
			d.logger.WarnWithFields("rate limited, backing off", map[string]interface{}{
				"credential": cred.String(),
				"endpoint":   req.Endpoint,
				"delay":      delay,
			})
			if err := d.wait(ctx, delay); err != nil {
				return res, err
			}

		case errs.IsSoftEmptyStatusCode(status):
			d.logger.DebugWithFields("resource absent, returning empty result", map[string]interface{}{
				"endpoint": req.Endpoint,
				"status":   status,
			})
			res.Outcome = OutcomeSoftEmpty
			res.Body = nil
			return res, nil

		case status >= 500:
			serverErrCount++
			if serverErrCount > d.pool.Size() {
				d.logger.ErrorWithFields("server error persisted across credential pool", map[string]interface{}{
					"endpoint": req.Endpoint,
					"status":   status,
				})
				return res, errs.New(errs.ErrorTypeNetwork, status,
					"server error for %s persisted across the whole pool", req.Endpoint)
			}
			delay := d.serverErrSleep.NextDelay(serverErrCount)
			d.logger.WarnWithFields("server error, retrying", map[string]interface{}{
				"endpoint": req.Endpoint,
				"status":   status,
				"delay":    delay,
			})
			if err := d.wait(ctx, delay); err != nil {
				return res, err
			}

		default:
			return res, errs.New(errs.ErrorTypeHTTP, status,
				"unexpected status %d for %s", status, req.Endpoint)
		}
	}
}

// decodeItems unmarshals one page body as a JSON array.
func decodeItems(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "paginated response is not a JSON array: %v", err)
	}
	return items, nil
}

// hasNextLink reports whether the Link header advertises another page.
func hasNextLink(h http.Header) bool {
	return strings.Contains(h.Get("Link"), `rel="next"`)
}
