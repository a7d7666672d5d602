// Package langdata classifies changed files as code or non-code and carries
// the word lists used when analyzing pull request text. Built-in defaults
// cover the common cases; each list can be overridden from a plain text
// file with one entry per line.
package langdata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Classifier holds the loaded language data.
type Classifier struct {
	nonCodeSuffixes map[string]bool
	textSuffixes    map[string]bool
	stopwords       []string
	reservedWords   []string
}

// Default returns a classifier backed by the built-in lists.
func Default() *Classifier {
	return &Classifier{
		nonCodeSuffixes: toSet(defaultNonCodeSuffixes),
		textSuffixes:    toSet(defaultTextSuffixes),
		stopwords:       defaultStopwords,
		reservedWords:   defaultReservedWords,
	}
}

// Load builds a classifier from a data directory, falling back to the
// built-in list for any file that is absent. Recognized files are
// non_code_suffix.txt, text_suffix.txt, stopwords.txt and reserved_words.txt.
func Load(dir string) (*Classifier, error) {
	c := Default()

	overrides := []struct {
		file  string
		apply func([]string)
	}{
		{"non_code_suffix.txt", func(lines []string) { c.nonCodeSuffixes = toSet(lines) }},
		{"text_suffix.txt", func(lines []string) { c.textSuffixes = toSet(lines) }},
		{"stopwords.txt", func(lines []string) { c.stopwords = lines }},
		{"reserved_words.txt", func(lines []string) { c.reservedWords = lines }},
	}

	for _, o := range overrides {
		lines, err := readLines(filepath.Join(dir, o.file))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load language data %s: %w", o.file, err)
		}
		o.apply(lines)
	}
	return c, nil
}

// IsNonCode reports whether a changed file carries no source code worth
// analyzing. Extensionless files and .gitignore variants count as non-code.
func (c *Classifier) IsNonCode(file string) bool {
	base := filepath.Base(file)
	if !strings.Contains(base, ".") {
		return true
	}
	if strings.Contains(base, ".gitignore") {
		return true
	}
	return c.nonCodeSuffixes[strings.ToLower(filepath.Ext(base))]
}

// IsTextSuffix reports whether the file's extension marks prose rather
// than markup or data.
func (c *Classifier) IsTextSuffix(file string) bool {
	return c.textSuffixes[strings.ToLower(filepath.Ext(file))]
}

// Stopwords returns the loaded general stopword list.
func (c *Classifier) Stopwords() []string {
	return c.stopwords
}

// ReservedWords returns the programming language keyword list.
func (c *Classifier) ReservedWords() []string {
	return c.reservedWords
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			set[item] = true
		}
	}
	return set
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
