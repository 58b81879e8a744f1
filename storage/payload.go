package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodePayload serializes state as indented JSON and base64-encodes it for the
// contents API.
func EncodePayload(state TrackState) (string, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayload reverses EncodePayload. Line breaks are ignored, the contents API
// wraps base64 content at 60 columns.
func DecodePayload(content string) (TrackState, error) {
	content = strings.NewReplacer("\n", "", "\r", "").Replace(content)
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return TrackState{}, fmt.Errorf("decoding base64 content: %w", err)
	}
	var state TrackState
	if err := json.Unmarshal(data, &state); err != nil {
		return TrackState{}, fmt.Errorf("decoding track state: %w", err)
	}
	return state, nil
}
