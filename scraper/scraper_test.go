package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestExtract_MetaOG(t *testing.T) {
	raw := `<html><head><meta property="og:title" content="DJ Nova - Midnight Drive"></head></html>`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, "DJ Nova - Midnight Drive", got.Text)
	assert.Equal(t, TagMetaOG, got.Rule)
}

func TestExtract_MetaOGContentFirst(t *testing.T) {
	raw := `<meta content="Queen - Bohemian Rhapsody" property="og:title" />`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, "Queen - Bohemian Rhapsody", got.Text)
	assert.Equal(t, TagMetaOG, got.Rule)
}

func TestExtract_DenyListedFallsBackToDefault(t *testing.T) {
	got := NewExtractor("", nil).Extract("Радио МИР онлайн слушать")

	assert.Equal(t, DefaultName, got.Text)
	assert.Equal(t, TagDefault, got.Rule)
	assert.True(t, got.IsDefault())
}

func TestExtract_NoMatchReturnsDefault(t *testing.T) {
	inputs := []string{
		"",
		"plain text without markup",
		"<html><body><p>hello world</p></body></html>",
		"<<<>>> <meta property=",
		`{"broken": `,
	}
	e := NewExtractor("Station - Live", nil)
	for _, in := range inputs {
		got := e.Extract(in)
		assert.Equal(t, Candidate{Text: "Station - Live", Rule: TagDefault}, got, "input %q", in)
	}
}

func TestExtract_MetaBeatsDash(t *testing.T) {
	raw := `<head><meta property="og:title" content="DJ Nova - Midnight Drive"></head>
<body><p>Other Artist - Other Song</p></body>`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, "DJ Nova - Midnight Drive", got.Text)
	assert.Equal(t, TagMetaOG, got.Rule)
}

func TestExtract_LaterMatchOfSameRule(t *testing.T) {
	// Navigation chrome comes before the real widget.
	raw := `<nav><a>Главная - Новости</a></nav><div><span>Kino - Gruppa Krovi</span></div>`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, "Kino - Gruppa Krovi", got.Text)
	assert.Equal(t, TagDashFormat, got.Rule)
}

func TestExtract_RejectedMetaFallsThrough(t *testing.T) {
	raw := `<meta property="og:title" content="Радио МИР">
<script>var player = { currentTrack: "Zemfira - Iskala" };</script>`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, "Zemfira - Iskala", got.Text)
	assert.Equal(t, TagJSCurrentTrack, got.Rule)
}

func TestExtract_Rules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Candidate
	}{
		{
			name: "now playing label",
			raw:  `<div>Сейчас играет: <b>Artik &amp; Asti - Isteritschka</b></div>`,
			want: Candidate{Text: "Artik & Asti - Isteritschka", Rule: TagNowPlaying},
		},
		{
			name: "now playing label case insensitive",
			raw:  `<div>СЕЙЧАС ИГРАЕТ<i class="x">  Miyagi -   Minor </i></div>`,
			want: Candidate{Text: "Miyagi - Minor", Rule: TagNowPlaying},
		},
		{
			name: "nowPlaying variable",
			raw:  `<script>window.nowPlaying = 'Muse - Hysteria';</script>`,
			want: Candidate{Text: "Muse - Hysteria", Rule: TagJSNowPlaying},
		},
		{
			name: "artist and title object",
			raw:  `<script>var meta = {"artist": " Depeche Mode ", "album": "Violator", "title": "Enjoy the Silence "};</script>`,
			want: Candidate{Text: "Depeche Mode - Enjoy the Silence", Rule: TagJSArtistTitle},
		},
		{
			name: "dom widget",
			raw: `<div class="now-playing"><span class="artist">Björk</span>
<span class="title">Jóga</span></div>`,
			want: Candidate{Text: "Björk - Jóga", Rule: TagDOMWidget},
		},
		{
			name: "dash fallback with en dash",
			raw:  `<li>Nautilus Pompilius – Skovannye odnoi tsepyu</li>`,
			want: Candidate{Text: "Nautilus Pompilius - Skovannye odnoi tsepyu", Rule: TagDashFormat},
		},
	}

	e := NewExtractor("", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.raw))
		})
	}
}

func TestExtract_JSONRuleFirst(t *testing.T) {
	raw := `{"data": [{"artist": "Aria", "song": {"name": "Besprechnyi"}}]}`

	e := NewExtractor("", nil, RulesWithJSON("data.0.artist", "data.0.song.name")...)
	got := e.Extract(raw)

	assert.Equal(t, Candidate{Text: "Aria - Besprechnyi", Rule: TagJSONAPI}, got)
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"abc", false},
		{"  ab  ", false},
		{"abcd", true},
		{"Юрий", true},
		{"ЛСП", false},
		{"Радио МИР", false},
		{"Слушать онлайн", false},
		{"loading...", false},
		{"  NULL ", false},
		{"«Undefined»", false},
		{"Kino - Gruppa Krovi", true},
		{"Radiohead - Creep", true},
		{"Queen - Radio Ga Ga", true},
		{"Roxette - Listen to Your Heart", true},
		{"Nullsleep - Silicon Lights", true},
		{"Sia - Loading Bay", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValid(tt.text), "IsValid(%q)", tt.text)
	}
}

func TestExtract_EnglishTrackWordsAreNotDenied(t *testing.T) {
	e := NewExtractor("", nil)
	for _, track := range []string{
		"Radiohead - Creep",
		"Queen - Radio Ga Ga",
		"Roxette - Listen to Your Heart",
		"Nullsleep - Silicon Lights",
		"Moby - Online",
	} {
		got := e.Extract(`<meta property="og:title" content="` + track + `">`)
		assert.Equal(t, Candidate{Text: track, Rule: TagMetaOG}, got)
	}
}

func TestExtract_PlaceholderFallsThrough(t *testing.T) {
	raw := `<script>currentTrack = "Loading...";</script><p>Zemfira - Iskala</p>`

	got := NewExtractor("", nil).Extract(raw)

	assert.Equal(t, Candidate{Text: "Zemfira - Iskala", Rule: TagDashFormat}, got)
}

func TestIsValid_DenyListAppliesToEveryRule(t *testing.T) {
	e := NewExtractor("fallback", []string{"Promo"})
	pages := []string{
		`<meta property="og:title" content="Big PROMO - Summer">`,
		`<script>currentTrack = "promo block";</script>`,
		`<p>Promo Artist - Promo Song</p>`,
		`<div class="now-playing"><span class="artist">Promo</span><span class="title">Jingle</span></div>`,
	}
	for _, page := range pages {
		assert.Equal(t, TagDefault, e.Extract(page).Rule, "page %q", page)
	}
}

type panicMatcher struct{}

func (panicMatcher) FindAll(string) [][]string { panic("boom") }

func TestExtract_MatcherPanicIsNoMatch(t *testing.T) {
	e := NewExtractor("fallback", nil,
		Rule{Tag: "broken", Matcher: panicMatcher{}},
		Rule{Tag: TagDashFormat, Matcher: MustRegexMatcher(`>\s*([^<>]+?)\s+-\s+([^<>]+?)\s*<`)},
	)

	got := e.Extract(`<p>Linkin Park - Numb</p>`)

	assert.Equal(t, Candidate{Text: "Linkin Park - Numb", Rule: TagDashFormat}, got)
}

func TestGetNowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Write([]byte(`<meta property="og:title" content="DJ Nova - Midnight Drive">`))
	}))
	defer srv.Close()

	base := NewBaseScraper(newTestLogger(), srv.URL, map[string]string{"X-Test": "yes"}, 0)
	s := NewStationScraper(base, NewExtractor("", nil))

	got, err := s.GetNowPlaying(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Candidate{Text: "DJ Nova - Midnight Drive", Rule: TagMetaOG}, got)
}

func TestTags(t *testing.T) {
	tags := NewExtractor("", nil).Tags()

	require.NotEmpty(t, tags)
	assert.Equal(t, TagMetaOG, tags[0])
	assert.Equal(t, TagDashFormat, tags[len(tags)-1])
}
