package storage

import (
	"sort"

	"prscraper/pkg/github"
)

// MergePulls folds a freshly fetched slice of pulls into a cached one.
// Fresh entries win on number collisions; the result is sorted ascending
// by number so successive merges stay stable on disk.
func MergePulls(cached, fresh []github.Pull) []github.Pull {
	seen := make(map[int]bool, len(fresh))
	merged := make([]github.Pull, 0, len(cached)+len(fresh))

	for _, p := range fresh {
		if seen[p.Number] {
			continue
		}
		seen[p.Number] = true
		merged = append(merged, p)
	}
	for _, p := range cached {
		if seen[p.Number] {
			continue
		}
		seen[p.Number] = true
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Number < merged[j].Number
	})
	return merged
}
