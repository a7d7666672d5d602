package diff

import (
	"regexp"
	"strconv"
	"strings"

	"prscraper/pkg/logger"
)

// DefaultMaxHunkBytes is the ceiling on a single hunk body's raw size.
// Pathological single-hunk blobs (minified bundles, generated code) are
// dropped rather than parsed.
const DefaultMaxHunkBytes = 100 * 1024

// Hunk is one contiguous changed region of a unified diff. For a
// well-formed hunk the added lines plus context account for AddLen and the
// removed lines plus context for DelLen; hunks that fail this are dropped
// whole, never half-recorded.
type Hunk struct {
	AddStart     int
	AddLen       int
	DelStart     int
	DelLen       int
	AddedLines   []string
	RemovedLines []string
}

// FileStats is the derived per-file statistics of one diff text.
type FileStats struct {
	Name             string   `json:"name"`
	AddedLOC         int      `json:"added_loc"`
	DeletedLOC       int      `json:"deleted_loc"`
	AddedLocations   [][2]int `json:"added_locations"`
	DeletedLocations [][2]int `json:"deleted_locations"`
	AddedCode        string   `json:"added_code"`
	DeletedCode      string   `json:"deleted_code"`
}

// fileBoundaryName extracts the display name from a "diff --git" boundary line.
var fileBoundaryName = regexp.MustCompile(`a/.*? b/(.*?)\n`)

// Parser converts unified-diff text into per-file statistics. Parsing is
// best-effort: a malformed hunk is skipped and logged, never fatal for the
// file, and a file whose boundary line cannot be parsed is skipped whole.
type Parser struct {
	maxHunkBytes int
	logger       logger.Logger
}

// NewParser creates a parser with the given hunk size ceiling.
// A non-positive ceiling selects DefaultMaxHunkBytes.
func NewParser(maxHunkBytes int, log logger.Logger) *Parser {
	if maxHunkBytes <= 0 {
		maxHunkBytes = DefaultMaxHunkBytes
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Parser{maxHunkBytes: maxHunkBytes, logger: log}
}

// Parse converts one file's diff text into statistics. Hunks appear in the
// output in input order; dropped hunks leave no trace beyond a log line.
func (p *Parser) Parse(fileName, text string) FileStats {
	stats := FileStats{Name: fileName}

	var addedParts, removedParts []string
	for _, h := range p.hunks(fileName, text) {
		stats.AddedLOC += len(h.AddedLines)
		stats.DeletedLOC += len(h.RemovedLines)
		stats.AddedLocations = append(stats.AddedLocations, [2]int{h.AddStart, h.AddLen})
		stats.DeletedLocations = append(stats.DeletedLocations, [2]int{h.DelStart, h.DelLen})
		addedParts = append(addedParts, h.AddedLines...)
		removedParts = append(removedParts, h.RemovedLines...)
	}

	if len(addedParts) > 0 {
		stats.AddedCode = strings.Join(addedParts, "\n") + "\n"
	}
	if len(removedParts) > 0 {
		stats.DeletedCode = strings.Join(removedParts, "\n") + "\n"
	}
	return stats
}

// ParseFiles splits a multi-file diff on "diff --git" boundaries and parses
// each file. Files whose boundary line yields no name are skipped entirely.
func (p *Parser) ParseFiles(text string) []FileStats {
	var files []FileStats

	chunks := strings.Split(text, "diff --git")
	for _, chunk := range chunks[1:] {
		match := fileBoundaryName.FindStringSubmatch(chunk)
		if match == nil {
			p.logger.Warn("skipping diff entry with unparseable file boundary")
			continue
		}
		files = append(files, p.Parse(match[1], chunk))
	}
	return files
}

// hunkAccum collects one hunk's body while scanning.
type hunkAccum struct {
	hunk     Hunk
	context  int
	rawBytes int
}

// hunks tokenizes the diff text into validated hunks. The scanner has two
// states: looking for a hunk header, and accumulating a hunk body. Body
// lines are classified by their leading byte; "\ No newline at end of
// file" markers are ignored outright.
func (p *Parser) hunks(fileName, text string) []Hunk {
	var result []Hunk
	var cur *hunkAccum

	flush := func() {
		if cur == nil {
			return
		}
		defer func() { cur = nil }()

		if cur.rawBytes > p.maxHunkBytes {
			p.logger.WarnWithFields("dropping oversized hunk", map[string]interface{}{
				"file":  fileName,
				"bytes": cur.rawBytes,
				"limit": p.maxHunkBytes,
			})
			return
		}

		h := cur.hunk
		if len(h.AddedLines)+cur.context != h.AddLen || len(h.RemovedLines)+cur.context != h.DelLen {
			p.logger.WarnWithFields("dropping hunk with inconsistent line counts", map[string]interface{}{
				"file":      fileName,
				"add_len":   h.AddLen,
				"del_len":   h.DelLen,
				"added":     len(h.AddedLines),
				"removed":   len(h.RemovedLines),
				"context":   cur.context,
				"add_start": h.AddStart,
			})
			return
		}
		result = append(result, h)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if isHunkHeader(line) {
			flush()
			hunk, err := parseHunkHeader(line)
			if err != nil {
				p.logger.WithError(err).WithField("file", fileName).Warn("skipping malformed hunk header")
				continue
			}
			cur = &hunkAccum{hunk: hunk}
			continue
		}

		if cur == nil {
			continue
		}
		cur.rawBytes += len(line) + 1

		switch {
		case line == "":
			// The final element of the split is the trailing-newline
			// artifact. Interior empties are blank context whose leading
			// space was stripped in transit.
			if i < len(lines)-1 {
				cur.context++
			}
		case line[0] == '+':
			cur.hunk.AddedLines = append(cur.hunk.AddedLines, line[1:])
		case line[0] == '-':
			cur.hunk.RemovedLines = append(cur.hunk.RemovedLines, line[1:])
		case line[0] == '\\':
			// "\ No newline at end of file" applies to the preceding line.
		default:
			cur.context++
		}
	}
	flush()

	return result
}

// isHunkHeader reports whether a line opens a hunk.
func isHunkHeader(line string) bool {
	if !strings.HasPrefix(line, "@@ ") {
		return false
	}
	return strings.Contains(line[3:], "@@")
}

// parseHunkHeader parses "@@ <range> <range> @@ ...". Each range is either
// ±start,length or ±start with length defaulting to 1. Which range is the
// added side and which the deleted side is decided by sign, not position:
// some producers emit them reversed.
func parseHunkHeader(line string) (Hunk, error) {
	inner := line[3:]
	end := strings.Index(inner, "@@")
	if end < 0 {
		return Hunk{}, &headerError{line: line, reason: "missing closing @@"}
	}

	fields := strings.Fields(inner[:end])
	if len(fields) != 2 {
		return Hunk{}, &headerError{line: line, reason: "expected exactly two ranges"}
	}

	var hunk Hunk
	var sawAdd, sawDel bool
	for _, field := range fields {
		start, length, sign, err := parseRange(field)
		if err != nil {
			return Hunk{}, err
		}
		switch sign {
		case '+':
			if sawAdd {
				return Hunk{}, &headerError{line: line, reason: "duplicate added range"}
			}
			hunk.AddStart, hunk.AddLen = start, length
			sawAdd = true
		case '-':
			if sawDel {
				return Hunk{}, &headerError{line: line, reason: "duplicate deleted range"}
			}
			hunk.DelStart, hunk.DelLen = start, length
			sawDel = true
		}
	}
	if !sawAdd || !sawDel {
		return Hunk{}, &headerError{line: line, reason: "missing added or deleted range"}
	}
	return hunk, nil
}

// parseRange parses one ±start[,length] token.
func parseRange(token string) (start, length int, sign byte, err error) {
	if token == "" || (token[0] != '+' && token[0] != '-') {
		return 0, 0, 0, &headerError{line: token, reason: "range must begin with + or -"}
	}
	sign = token[0]

	body := token[1:]
	length = 1
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		length, err = strconv.Atoi(body[comma+1:])
		if err != nil {
			return 0, 0, 0, &headerError{line: token, reason: "non-numeric length"}
		}
		body = body[:comma]
	}

	start, err = strconv.Atoi(body)
	if err != nil {
		return 0, 0, 0, &headerError{line: token, reason: "non-numeric start"}
	}
	return start, length, sign, nil
}

// headerError describes a malformed hunk header. It never escapes the
// parser; headers that fail to parse only cost their own hunk.
type headerError struct {
	line   string
	reason string
}

func (e *headerError) Error() string {
	return "malformed hunk header (" + e.reason + "): " + e.line
}
