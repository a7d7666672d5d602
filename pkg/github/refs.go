package github

import (
	"regexp"
	"sort"
)

var (
	hashRefPattern  = regexp.MustCompile(`#([0-9]+)`)
	pullRefPattern  = regexp.MustCompile(`pull/([0-9]+)`)
	issueRefPattern = regexp.MustCompile(`issues/([0-9]+)`)
)

// ReferencedNumbers extracts issue and pull request numbers referenced in
// free text: "#123", "pull/123" and "issues/123" forms. The result is
// deduplicated and sorted.
func ReferencedNumbers(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	for _, pattern := range []*regexp.Regexp{hashRefPattern, pullRefPattern, issueRefPattern} {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			seen[match[1]] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}

	nums := make([]string, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Strings(nums)
	return nums
}
