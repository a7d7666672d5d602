package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	errs "prscraper/pkg/errors"
	"prscraper/pkg/logger"
	"prscraper/pkg/ratelimit"
)

const (
	// DefaultBaseURL is the REST API root.
	DefaultBaseURL = "https://api.github.com/"

	// DefaultAccept requests the timeline preview media type, which the
	// issue/PR timeline endpoints require.
	DefaultAccept = "application/vnd.github.mockingbird-preview"
)

// Credential pairs one opaque API token with its observed rate-limit state
// and performs the raw HTTP calls. Two credentials constructed from the
// same secret are distinct: each owns its own trackers.
type Credential struct {
	secret     string
	baseURL    string
	accept     string
	httpClient *http.Client
	trackers   map[ratelimit.Class]*ratelimit.Tracker
	logger     logger.Logger
}

// NewCredential creates a credential for one token.
func NewCredential(secret string, timeout time.Duration, log logger.Logger) *Credential {
	if log == nil {
		log = logger.GetLogger()
	}

	trackers := make(map[ratelimit.Class]*ratelimit.Tracker, len(ratelimit.Classes))
	for _, class := range ratelimit.Classes {
		trackers[class] = ratelimit.NewTracker()
	}

	return &Credential{
		secret:     secret,
		baseURL:    DefaultBaseURL,
		accept:     DefaultAccept,
		httpClient: &http.Client{Timeout: timeout},
		trackers:   trackers,
		logger:     log,
	}
}

// SetBaseURL overrides the API root, mainly for tests and enterprise hosts.
func (c *Credential) SetBaseURL(baseURL string) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c.baseURL = baseURL
}

// SetAccept overrides the Accept header.
func (c *Credential) SetAccept(accept string) {
	c.accept = accept
}

// SetHTTPClient replaces the underlying HTTP client, mainly for tests.
func (c *Credential) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Tracker returns the tracker for a rate class.
func (c *Credential) Tracker(class ratelimit.Class) *ratelimit.Tracker {
	return c.trackers[class]
}

// Ready reports whether this credential may send a request of the given
// class now.
func (c *Credential) Ready(class ratelimit.Class, now time.Time) bool {
	return c.trackers[class].Ready(now)
}

// ReadyAt returns the earliest time this credential may send a request of
// the given class.
func (c *Credential) ReadyAt(class ratelimit.Class, now time.Time) time.Time {
	return c.trackers[class].ReadyAt(now)
}

// Do performs the request and updates the tracker for the request's class
// from the response's rate-limit headers. The caller owns the response body.
func (c *Credential) Do(ctx context.Context, req Request) (*http.Response, error) {
	u := c.baseURL + req.Endpoint
	if enc := req.Query.Encode(); enc != "" {
		if strings.Contains(u, "?") {
			u += "&" + enc
		} else {
			u += "?" + enc
		}
	}

	var body *bytes.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	if c.secret != "" {
		httpReq.Header.Set("Authorization", "token "+c.secret)
	}
	httpReq.Header.Set("Accept", c.accept)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"endpoint": req.Endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.updateTracker(req.Class(), resp)

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"endpoint": req.Endpoint,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// updateTracker overwrites the class tracker from X-RateLimit headers, if
// the response carries them. All three fields come from the same response.
func (c *Credential) updateTracker(class ratelimit.Class, resp *http.Response) {
	remainingHdr := resp.Header.Get("X-RateLimit-Remaining")
	if remainingHdr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainingHdr)
	if err != nil {
		return
	}
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))

	var reset time.Time
	if resetUnix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		reset = time.Unix(resetUnix, 0)
	}

	c.trackers[class].Update(remaining, limit, reset)
}

// String identifies the credential without leaking the secret.
func (c *Credential) String() string {
	if len(c.secret) <= 4 {
		return "credential(****)"
	}
	return fmt.Sprintf("credential(%s****)", c.secret[:4])
}
