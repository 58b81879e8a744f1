package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JSONMatcher is used for stations whose now-playing URL answers with JSON instead of HTML.
// ArtistKey is optional; TitleKey is required.
type JSONMatcher struct {
	ArtistKey []interface{}
	TitleKey  []interface{}
}

func NewJSONMatcher(artistPath, titlePath string) *JSONMatcher {
	return &JSONMatcher{
		ArtistKey: ParseKeyPath(artistPath),
		TitleKey:  ParseKeyPath(titlePath),
	}
}

// ParseKeyPath turns "data.0.title" into ["data", 0, "title"].
func ParseKeyPath(path string) []interface{} {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	var keys []interface{}
	for _, part := range strings.Split(path, ".") {
		if idx, err := strconv.Atoi(part); err == nil {
			keys = append(keys, idx)
			continue
		}
		keys = append(keys, part)
	}
	return keys
}

func (m *JSONMatcher) FindAll(text string) [][]string {
	if len(m.TitleKey) == 0 {
		return nil
	}
	var data interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		return nil
	}

	title, err := getValueFromKey(data, m.TitleKey)
	if err != nil {
		return nil
	}
	titleStr, ok := title.(string)
	if !ok {
		return nil
	}

	if len(m.ArtistKey) == 0 {
		return [][]string{{titleStr}}
	}
	artist, err := getValueFromKey(data, m.ArtistKey)
	if err != nil {
		return [][]string{{titleStr}}
	}
	artistStr, ok := artist.(string)
	if !ok || strings.TrimSpace(artistStr) == "" {
		return [][]string{{titleStr}}
	}
	return [][]string{{artistStr, titleStr}}
}

func getValueFromKey(data interface{}, keys []interface{}) (interface{}, error) {
	var value interface{} = data
	for _, key := range keys {
		switch key := key.(type) {
		case string:
			m, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("key %q: not an object", key)
			}
			value, ok = m[key]
			if !ok {
				return nil, fmt.Errorf("key %q: not found", key)
			}
		case int:
			a, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("index %d: not an array", key)
			}
			if key < 0 || key >= len(a) {
				return nil, fmt.Errorf("index %d: out of range", key)
			}
			value = a[key]
		default:
			return nil, fmt.Errorf("invalid key type: %T", key)
		}
	}
	return value, nil
}
