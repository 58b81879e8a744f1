package scraper

// DefaultName is shown when no rule finds a track.
const DefaultName = "Радио МИР - Прямой эфир"

// DefaultDenyList holds station chrome and navigation text that is never a track name.
// Terms are matched case-insensitively as substrings, so they must not be words that
// also occur in real artist or title names.
var DefaultDenyList = []string{
	"радио",
	"онлайн",
	"слушать",
	"прямой эфир",
	"в эфире",
	"сейчас играет",
	"главная",
	"новости",
	"реклама",
	"программа передач",
	"контакты",
}

// DefaultPlaceholders are rejected only when they make up the whole candidate,
// ignoring case, surrounding punctuation and whitespace.
var DefaultPlaceholders = []string{
	"null",
	"undefined",
	"nan",
	"javascript",
	"loading",
	"загрузка",
	"now playing",
	"on air",
	"live",
	"unknown",
	"unknown - unknown",
}

const (
	widgetContainer = ".now-playing, .nowplaying, .current-track, #now-playing, .track-info"
	widgetArtist    = ".artist, .track-artist, [itemprop=byArtist]"
	widgetTitle     = ".title, .track-title, .song, [itemprop=name]"
)

// DefaultRules returns the rule table, cheapest and most structured signals first.
// The last rule is the broad "Artist - Title" text fallback.
func DefaultRules() []Rule {
	return []Rule{
		{Tag: TagMetaOG, Matcher: MustRegexMatcher(`<meta[^>]+property\s*=\s*["']og:title["'][^>]*content\s*=\s*"([^"]+)"`)},
		{Tag: TagMetaOG, Matcher: MustRegexMatcher(`<meta[^>]+content\s*=\s*"([^"]+)"[^>]*property\s*=\s*["']og:title["']`)},
		{Tag: TagNowPlaying, Matcher: MustRegexMatcher(`(?:Сейчас играет|Now playing)[^>]*>([^<]+)`)},
		{Tag: TagJSCurrentTrack, Matcher: MustRegexMatcher(`currentTrack["']?\s*[:=]\s*["']([^"']+)["']`)},
		{Tag: TagJSNowPlaying, Matcher: MustRegexMatcher(`nowPlaying["']?\s*[:=]\s*["']([^"']+)["']`)},
		{Tag: TagJSArtistTitle, Matcher: MustRegexMatcher(`["']?artist["']?\s*[:=]\s*["']([^"']+)["'][^{}]{0,200}?["']?title["']?\s*[:=]\s*["']([^"']+)["']`)},
		{Tag: TagDOMWidget, Matcher: NewSelectorMatcher(widgetContainer, widgetArtist, widgetTitle)},
		{Tag: TagDashFormat, Matcher: MustRegexMatcher(`>\s*([^<>\n]{2,80}?)\s+[-–—]\s+([^<>\n]{2,80}?)\s*<`)},
	}
}

// RulesWithJSON puts a JSON key-path rule in front of the default table.
func RulesWithJSON(artistPath, titlePath string) []Rule {
	return append([]Rule{{Tag: TagJSONAPI, Matcher: NewJSONMatcher(artistPath, titlePath)}}, DefaultRules()...)
}
