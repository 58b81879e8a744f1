package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"radio-nowplaying/config"
)

// ErrSkipped means the backend is not configured to write (e.g. no credential).
// It is not a failure.
var ErrSkipped = errors.New("storage: write skipped")

// TrackState is the single persisted record: the current track and where it came from.
type TrackState struct {
	Track     string `json:"track"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

func NewTrackState(track, source string, now time.Time) TrackState {
	return TrackState{
		Track:     track,
		Source:    source,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// PersistError reports a rejected write. Body holds a bounded prefix of the response.
type PersistError struct {
	Backend    string
	StatusCode int
	Body       string
	Err        error
}

func (e *PersistError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s storage: status code %d: %s", e.Backend, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s storage: %v", e.Backend, e.Err)
	default:
		return fmt.Sprintf("%s storage: write failed", e.Backend)
	}
}

func (e *PersistError) Unwrap() error { return e.Err }

type Storage interface {
	Name() string
	// Write replaces the stored state. It returns ErrSkipped when the backend is disabled.
	Write(ctx context.Context, state TrackState) error
	// Load returns the stored state, or nil when nothing has been stored yet.
	Load(ctx context.Context) (*TrackState, error)
	Close() error
}

// NewStorage builds the backend selected by cfg.Type. It returns nil, nil for "none".
func NewStorage(logger *logrus.Logger, cfg config.Storage) (Storage, error) {
	switch cfg.Type {
	case "file":
		return NewFileStorage(logger, cfg.Path, cfg.Format)
	case "github":
		return NewGitHubStorage(logger, cfg.GitHub, cfg.Timeout), nil
	case "redis":
		return NewRedisStorage(logger, cfg.Redis)
	case "sqlite":
		return NewSQLiteStorage(logger, cfg.Path)
	case "postgres":
		return NewPostgreSQLStorage(logger, cfg.Path, cfg.Timeout)
	case "memory":
		return NewMemoryStorage(), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
