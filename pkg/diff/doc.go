// Package diff parses unified-diff text into per-file change statistics.
//
// The parser is deliberately tolerant: a malformed hunk header, a hunk
// whose body does not account for its declared line counts, or a hunk
// larger than the configured byte ceiling costs only that hunk. A file
// entry whose "diff --git" boundary cannot be parsed costs only that
// file. Nothing in this package panics on adversarial input.
//
// Fetcher pairs the parser with an HTTP download of GitHub's .diff
// rendering of a pull request or commit comparison.
package diff
