package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SelectorMatcher reads the rendered now-playing widget. For every element matching
// Container it returns the text of the first ArtistTag and TitleTag descendants.
type SelectorMatcher struct {
	Container string
	ArtistTag string
	TitleTag  string
}

func NewSelectorMatcher(container, artistTag, titleTag string) *SelectorMatcher {
	return &SelectorMatcher{
		Container: container,
		ArtistTag: artistTag,
		TitleTag:  titleTag,
	}
}

func (m *SelectorMatcher) FindAll(text string) [][]string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}

	var groups [][]string
	doc.Find(m.Container).Each(func(_ int, sel *goquery.Selection) {
		artist := strings.TrimSpace(sel.Find(m.ArtistTag).First().Text())
		title := strings.TrimSpace(sel.Find(m.TitleTag).First().Text())

		switch {
		case artist != "" && title != "":
			groups = append(groups, []string{artist, title})
		case title != "":
			groups = append(groups, []string{title})
		}
	})
	return groups
}
