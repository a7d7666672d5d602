// Package storage persists fetched API artifacts as per-repository JSON
// blobs on the local filesystem.
//
// The layout is inspectable: each repository gets an owner/name directory
// pair under the data root, and each artifact is a .json file inside it.
// Pull request scoped artifacts nest one level deeper, e.g.
// pull_42/raw_diff.json. All writes are atomic.
package storage
