package diff

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prscraper/pkg/logger"
)

func newTestParser(maxHunkBytes int) (*Parser, *logger.TestLogger) {
	log := logger.NewTestLogger()
	return NewParser(maxHunkBytes, log), log
}

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Hunk
		wantErr bool
	}{
		{
			name: "standard order",
			line: "@@ -10,5 +12,7 @@ func main() {",
			want: Hunk{AddStart: 12, AddLen: 7, DelStart: 10, DelLen: 5},
		},
		{
			name: "reversed order resolved by sign",
			line: "@@ +12,7 -10,5 @@",
			want: Hunk{AddStart: 12, AddLen: 7, DelStart: 10, DelLen: 5},
		},
		{
			name: "length defaults to one",
			line: "@@ -5 +5,2 @@",
			want: Hunk{AddStart: 5, AddLen: 2, DelStart: 5, DelLen: 1},
		},
		{
			name: "both lengths default",
			line: "@@ -3 +4 @@",
			want: Hunk{AddStart: 4, AddLen: 1, DelStart: 3, DelLen: 1},
		},
		{
			name:    "missing closing marker",
			line:    "@@ -1,2 +1,3",
			wantErr: true,
		},
		{
			name:    "only one range",
			line:    "@@ -1,2 @@",
			wantErr: true,
		},
		{
			name:    "two ranges with the same sign",
			line:    "@@ +1,2 +1,3 @@",
			wantErr: true,
		},
		{
			name:    "non-numeric start",
			line:    "@@ -x,2 +1,3 @@",
			wantErr: true,
		},
		{
			name:    "non-numeric length",
			line:    "@@ -1,y +1,3 @@",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !isHunkHeader(tt.line) {
				require.True(t, tt.wantErr, "line should have been recognized as a header")
				return
			}
			got, err := parseHunkHeader(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.AddStart, got.AddStart)
			assert.Equal(t, tt.want.AddLen, got.AddLen)
			assert.Equal(t, tt.want.DelStart, got.DelStart)
			assert.Equal(t, tt.want.DelLen, got.DelLen)
		})
	}
}

func TestParseSingleHunk(t *testing.T) {
	parser, _ := newTestParser(0)

	text := "@@ -1,2 +1,3 @@\n" +
		" context\n" +
		"-old\n" +
		"+new1\n" +
		"+new2\n"

	stats := parser.Parse("main.go", text)

	assert.Equal(t, "main.go", stats.Name)
	assert.Equal(t, 2, stats.AddedLOC)
	assert.Equal(t, 1, stats.DeletedLOC)
	assert.Equal(t, [][2]int{{1, 3}}, stats.AddedLocations)
	assert.Equal(t, [][2]int{{1, 2}}, stats.DeletedLocations)
	assert.Equal(t, "new1\nnew2\n", stats.AddedCode)
	assert.Equal(t, "old\n", stats.DeletedCode)
}

func TestParseStripsMarkers(t *testing.T) {
	parser, _ := newTestParser(0)

	text := "@@ -1 +1,2 @@\n" +
		"-removed line\n" +
		"+added line\n" +
		"+\tindented\n"

	stats := parser.Parse("f.go", text)

	assert.Equal(t, "added line\n\tindented\n", stats.AddedCode)
	assert.Equal(t, "removed line\n", stats.DeletedCode)
}

func TestParseMalformedHeaderSkipsOnlyThatHunk(t *testing.T) {
	parser, log := newTestParser(0)

	text := "@@ -1,banana +1,2 @@\n" +
		"+ignored\n" +
		"@@ -1 +1 @@\n" +
		"-old\n" +
		"+new\n"

	stats := parser.Parse("f.go", text)

	assert.Equal(t, 1, stats.AddedLOC)
	assert.Equal(t, 1, stats.DeletedLOC)
	assert.Equal(t, "new\n", stats.AddedCode)
	assert.True(t, log.HasMessage("skipping malformed hunk header"))
}

func TestParseInconsistentCountsDropsHunk(t *testing.T) {
	parser, log := newTestParser(0)

	// Declares three added lines but the body only carries one.
	text := "@@ -1,1 +1,3 @@\n" +
		"+only one\n" +
		" context\n"

	stats := parser.Parse("f.go", text)

	assert.Zero(t, stats.AddedLOC)
	assert.Zero(t, stats.DeletedLOC)
	assert.Empty(t, stats.AddedLocations)
	assert.True(t, log.HasMessage("dropping hunk with inconsistent line counts"))
}

func TestParseBlankContextLineCountsTowardLengths(t *testing.T) {
	parser, log := newTestParser(0)

	// Some transports strip the leading space from blank context lines.
	// The empty interior line must still count toward both declared
	// lengths or the hunk would be dropped as inconsistent.
	text := "@@ -1,3 +1,3 @@\n" +
		" context\n" +
		"\n" +
		"-old\n" +
		"+new\n"

	stats := parser.Parse("f.go", text)

	assert.Equal(t, 1, stats.AddedLOC)
	assert.Equal(t, 1, stats.DeletedLOC)
	assert.Equal(t, [][2]int{{1, 3}}, stats.AddedLocations)
	assert.Equal(t, "new\n", stats.AddedCode)
	assert.Equal(t, "old\n", stats.DeletedCode)
	assert.False(t, log.HasMessage("dropping hunk with inconsistent line counts"))
}

func TestParseOversizedHunkDropped(t *testing.T) {
	parser, log := newTestParser(64)

	big := "@@ -1,1 +1,1 @@\n+" + strings.Repeat("x", 200) + "\n"
	small := "@@ -1 +1 @@\n-a\n+b\n"

	stats := parser.Parse("f.go", big+small)

	assert.Equal(t, 1, stats.AddedLOC)
	assert.Equal(t, "b\n", stats.AddedCode)
	assert.True(t, log.HasMessage("dropping oversized hunk"))
}

func TestParseIgnoresNoNewlineMarker(t *testing.T) {
	parser, _ := newTestParser(0)

	text := "@@ -1 +1 @@\n" +
		"-old\n" +
		"\\ No newline at end of file\n" +
		"+new\n" +
		"\\ No newline at end of file\n"

	stats := parser.Parse("f.go", text)

	assert.Equal(t, 1, stats.AddedLOC)
	assert.Equal(t, 1, stats.DeletedLOC)
	assert.Equal(t, "new\n", stats.AddedCode)
}

func TestParseEmptyAndHeaderlessText(t *testing.T) {
	parser, _ := newTestParser(0)

	assert.Equal(t, FileStats{Name: "f.go"}, parser.Parse("f.go", ""))

	// Text before the first header is ignored, including minus-prefixed
	// file header lines.
	preamble := "index 123..456 100644\n--- a/f.go\n+++ b/f.go\n"
	stats := parser.Parse("f.go", preamble)
	assert.Zero(t, stats.AddedLOC)
	assert.Zero(t, stats.DeletedLOC)
}

func TestParseMultipleHunksAccumulate(t *testing.T) {
	parser, _ := newTestParser(0)

	text := "@@ -1,2 +1,2 @@\n" +
		" keep\n" +
		"-a\n" +
		"+b\n" +
		"@@ -10,3 +10,4 @@\n" +
		" one\n" +
		" two\n" +
		" three\n" +
		"+four\n"

	stats := parser.Parse("f.go", text)

	assert.Equal(t, 2, stats.AddedLOC)
	assert.Equal(t, 1, stats.DeletedLOC)
	assert.Equal(t, [][2]int{{1, 2}, {10, 4}}, stats.AddedLocations)
	assert.Equal(t, [][2]int{{1, 2}, {10, 3}}, stats.DeletedLocations)
	assert.Equal(t, "b\nfour\n", stats.AddedCode)
}

func TestParseFiles(t *testing.T) {
	parser, _ := newTestParser(0)

	text := "diff --git a/first.go b/first.go\n" +
		"index 111..222 100644\n" +
		"--- a/first.go\n" +
		"+++ b/first.go\n" +
		"@@ -1 +1 @@\n" +
		"-old\n" +
		"+new\n" +
		"diff --git a/dir/second.py b/dir/second.py\n" +
		"--- a/dir/second.py\n" +
		"+++ b/dir/second.py\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+line1\n" +
		"+line2\n"

	files := parser.ParseFiles(text)

	require.Len(t, files, 2)
	assert.Equal(t, "first.go", files[0].Name)
	assert.Equal(t, 1, files[0].AddedLOC)
	assert.Equal(t, "dir/second.py", files[1].Name)
	assert.Equal(t, 2, files[1].AddedLOC)
	assert.Equal(t, [][2]int{{1, 2}}, files[1].AddedLocations)
	assert.Equal(t, [][2]int{{0, 0}}, files[1].DeletedLocations)
}

func TestParseFilesSkipsUnparseableBoundary(t *testing.T) {
	parser, log := newTestParser(0)

	text := "diff --git mangled-header-without-names\n" +
		"diff --git a/ok.go b/ok.go\n" +
		"@@ -1 +1 @@\n" +
		"-x\n" +
		"+y\n"

	files := parser.ParseFiles(text)

	require.Len(t, files, 1)
	assert.Equal(t, "ok.go", files[0].Name)
	assert.True(t, log.HasMessage("skipping diff entry with unparseable file boundary"))
}

func TestParseFilesNoBoundaries(t *testing.T) {
	parser, _ := newTestParser(0)
	assert.Empty(t, parser.ParseFiles("just some text\nwith no diff in it\n"))
}

func TestFetchRawDiff(t *testing.T) {
	body := "diff --git a/a.go b/a.go\n" +
		"@@ -1 +1 @@\n" +
		"-old\n" +
		"+new\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	parser, log := newTestParser(0)
	fetcher := NewFetcher(parser, 0, 5*time.Second, log)

	files, err := fetcher.FetchRawDiff(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.go", files[0].Name)
	assert.Equal(t, "new\n", files[0].AddedCode)
}

func TestFetchRawDiffNonRetryableStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	parser, log := newTestParser(0)
	fetcher := NewFetcher(parser, 3, 5*time.Second, log)

	_, err := fetcher.FetchRawDiff(context.Background(), server.URL)
	assert.Error(t, err)
	// 404 is not retried, so the retry loop must have run exactly once.
	assert.Empty(t, log.GetMessagesByLevel("WARN"))
}
