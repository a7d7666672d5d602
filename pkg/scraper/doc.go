// Package scraper is the cache-first orchestration layer. It sits between
// the typed API client and the blob store: every fetched artifact is
// persisted immediately, and subsequent reads are served from disk (or a
// short-lived memory cache for hot file lists) unless the caller forces a
// renew.
//
// The layer also applies the analysis-oriented filters: per-file change
// caps, non-code file exclusion and the too-big pull request checks.
package scraper
