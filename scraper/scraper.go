package scraper

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

type RuleTag string

const (
	TagJSONAPI        RuleTag = "json_api"
	TagMetaOG         RuleTag = "meta_og"
	TagNowPlaying     RuleTag = "now_playing"
	TagJSCurrentTrack RuleTag = "js_current_track"
	TagJSNowPlaying   RuleTag = "js_now_playing"
	TagJSArtistTitle  RuleTag = "js_artist_title"
	TagDOMWidget      RuleTag = "dom_widget"
	TagDashFormat     RuleTag = "dash_format"
	TagDefault        RuleTag = "default"
)

const minTrackLength = 4

// Candidate is an extracted track together with the rule that produced it.
type Candidate struct {
	Text string
	Rule RuleTag
}

func (c Candidate) IsDefault() bool { return c.Rule == TagDefault }

// Matcher finds every occurrence of a pattern in a page. Each match is its list of
// captured groups: one group is a full track, two groups are artist and title.
// Matchers return nil when nothing matches and must tolerate any input.
type Matcher interface {
	FindAll(text string) [][]string
}

type Rule struct {
	Tag     RuleTag
	Matcher Matcher
}

type Extractor struct {
	rules        []Rule
	denyList     []string
	placeholders map[string]struct{}
	defaultName  string
}

// NewExtractor builds an extractor over rules (DefaultRules when empty). extraDeny is
// added to DefaultDenyList. The rule table is copied and never changes afterwards.
func NewExtractor(defaultName string, extraDeny []string, rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if defaultName == "" {
		defaultName = DefaultName
	}

	deny := make([]string, 0, len(DefaultDenyList)+len(extraDeny))
	for _, term := range append(append([]string{}, DefaultDenyList...), extraDeny...) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			deny = append(deny, term)
		}
	}

	placeholders := make(map[string]struct{}, len(DefaultPlaceholders))
	for _, p := range DefaultPlaceholders {
		placeholders[normalizePlaceholder(p)] = struct{}{}
	}

	return &Extractor{
		rules:        append([]Rule(nil), rules...),
		denyList:     deny,
		placeholders: placeholders,
		defaultName:  defaultName,
	}
}

// Extract returns the first valid candidate in rule order, then match order, or the
// default candidate when no rule yields one.
func (e *Extractor) Extract(raw string) Candidate {
	for _, rule := range e.rules {
		for _, groups := range findAll(rule.Matcher, raw) {
			text, ok := joinGroups(groups)
			if !ok {
				continue
			}
			if e.IsValid(text) {
				return Candidate{Text: text, Rule: rule.Tag}
			}
		}
	}
	return Candidate{Text: e.defaultName, Rule: TagDefault}
}

// IsValid rejects candidates shorter than four characters, bare placeholders such as
// "null" or "Loading..." and any candidate that contains a deny-list term.
func (e *Extractor) IsValid(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minTrackLength {
		return false
	}
	if _, ok := e.placeholders[normalizePlaceholder(text)]; ok {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range e.denyList {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

func (e *Extractor) Tags() []RuleTag {
	tags := make([]RuleTag, 0, len(e.rules))
	for _, rule := range e.rules {
		tags = append(tags, rule.Tag)
	}
	return tags
}

// IsValid checks text against DefaultDenyList.
func IsValid(text string) bool {
	return defaultExtractor.IsValid(text)
}

var defaultExtractor = NewExtractor(DefaultName, nil)

func normalizePlaceholder(text string) string {
	return strings.ToLower(strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}

func findAll(m Matcher, text string) (groups [][]string) {
	defer func() {
		if recover() != nil {
			groups = nil
		}
	}()
	return m.FindAll(text)
}

func joinGroups(groups []string) (string, bool) {
	switch len(groups) {
	case 1:
		return cleanString(groups[0]), true
	case 2:
		artist := cleanString(groups[0])
		title := cleanString(groups[1])
		if artist == "" || title == "" {
			return "", false
		}
		return artist + " - " + title, true
	default:
		return "", false
	}
}

type Scraper interface {
	GetNowPlaying(ctx context.Context) (Candidate, error)
}

// StationScraper fetches the station page and runs the extractor over it.
type StationScraper struct {
	*BaseScraper
	Extractor *Extractor
}

func NewStationScraper(base *BaseScraper, extractor *Extractor) *StationScraper {
	return &StationScraper{BaseScraper: base, Extractor: extractor}
}

func (s *StationScraper) GetNowPlaying(ctx context.Context) (Candidate, error) {
	raw, err := s.Fetch(ctx)
	if err != nil {
		return Candidate{}, err
	}
	candidate := s.Extractor.Extract(raw)
	s.Logger.WithFields(logrus.Fields{
		"track": candidate.Text,
		"rule":  candidate.Rule,
	}).Debug("Extracted now playing")
	return candidate, nil
}
