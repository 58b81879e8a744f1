package scraper

import (
	"html"
	"regexp"
	"strings"
)

// RegexMatcher returns the capture groups of every match of a case-insensitive pattern.
// Patterns must have one (track) or two (artist, title) capture groups.
type RegexMatcher struct {
	Regex *regexp.Regexp
}

func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	compiledRegex, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{Regex: compiledRegex}, nil
}

func MustRegexMatcher(pattern string) *RegexMatcher {
	m, err := NewRegexMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *RegexMatcher) FindAll(text string) [][]string {
	matches := m.Regex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	groups := make([][]string, 0, len(matches))
	for _, match := range matches {
		groups = append(groups, match[1:])
	}
	return groups
}

// cleanString unescapes HTML entities, drops NUL bytes and collapses whitespace runs.
func cleanString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
