// Package ratelimit tracks per-credential API quota.
//
// Unlike a local token bucket, quota here is owned by the remote API and
// only learned from the X-RateLimit-* headers of responses actually sent.
// Each credential keeps one Tracker per rate Class (standard vs. search);
// the tracker answers two questions: may a request be sent now (Ready) and
// when is the earliest moment one may be sent (ReadyAt).
//
// State can be briefly optimistic or pessimistic relative to ground truth:
// there is no background refresh, matching the last-known-quota model of
// the credential pool.
package ratelimit
