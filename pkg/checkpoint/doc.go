// Package checkpoint provides functionality for saving and resuming scrape progress.
//
// The checkpoint system allows a repository scrape to resume after
// interruptions such as network failures, exhausted rate limits, or manual
// stops. It tracks:
//   - Last completed page of the pull request list fetch
//   - Pull requests whose artifacts are already on disk
//   - Overall progress statistics
//
// Checkpoint files live under <data-dir>/checkpoints/, one per repository,
// are saved atomically to prevent corruption and include versioning for
// future compatibility.
package checkpoint
