// Package github implements the token-pool request dispatcher and the
// typed API client built on it.
//
// A Credential pairs one opaque token with its per-class rate-limit
// trackers and performs the raw HTTP calls. The Pool owns an ordered set
// of credentials and picks the first ready one deterministically. The
// Dispatcher drives a logical request to completion over the pool:
// credential selection, rate-limit exhaustion waits, status-code policy,
// bounded retries on network and server failures, and Link-header
// pagination. Client adds typed fetchers that flatten the API's nested
// envelopes into stable records.
//
// Status policy in one view:
//
//	2xx                  terminal success (or next page when paginating)
//	401                  reselect a credential; the token stays pooled
//	403 (quota spent)    jittered sleep, then reselect
//	404/409/410/451      soft empty: terminal success with no data
//	5xx                  jittered retry, escalating after one pool round
//	anything else        terminal HTTP error
//
// The dispatcher's only unbounded wait is the pool-exhaustion sleep;
// callers bound it with the context they pass to Execute.
package github
