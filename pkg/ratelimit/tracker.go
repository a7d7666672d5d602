package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Class is a named partition of API quota tracked independently per credential.
type Class string

const (
	// ClassStandard covers every endpoint except search.
	ClassStandard Class = "core"
	// ClassSearch covers search endpoints, which carry their own quota.
	ClassSearch Class = "search"
)

// Classes lists all known rate classes.
var Classes = []Class{ClassStandard, ClassSearch}

// ClassFor returns the rate class for an endpoint path.
func ClassFor(endpoint string) Class {
	if strings.HasPrefix(endpoint, "search") {
		return ClassSearch
	}
	return ClassStandard
}

// Tracker holds the last observed quota state for one credential and one
// rate class. remaining, limit and reset are only ever overwritten together,
// from the headers of a single response.
type Tracker struct {
	mu        sync.Mutex
	remaining int
	limit     int
	reset     time.Time
	observed  bool
}

// NewTracker returns a tracker with no observed state. An unobserved tracker
// reports ready: the first request is sent optimistically and the response
// headers seed the real state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update overwrites the tracked quota state from one response's headers.
func (t *Tracker) Update(remaining, limit int, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.remaining = remaining
	t.limit = limit
	t.reset = reset
	t.observed = true
}

// Exhaust records that the credential's quota was spent without a usable
// reset time becoming known, as happens on a 403 body without fresh headers.
func (t *Tracker) Exhaust(reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.remaining = 0
	if reset.After(t.reset) {
		t.reset = reset
	}
	t.observed = true
}

// Ready reports whether a request may be sent now. A never-observed tracker
// is ready, as is one with quota left or one whose reset time has passed.
func (t *Tracker) Ready(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.observed || t.remaining > 0 {
		return true
	}
	return !now.Before(t.reset)
}

// ReadyAt returns the earliest time a request may be sent: now unless the
// quota is exhausted, in which case the observed reset time.
func (t *Tracker) ReadyAt(now time.Time) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.observed || t.remaining > 0 {
		return now
	}
	if t.reset.After(now) {
		return t.reset
	}
	return now
}

// Snapshot returns the current tracked state.
func (t *Tracker) Snapshot() (remaining, limit int, reset time.Time, observed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining, t.limit, t.reset, t.observed
}
