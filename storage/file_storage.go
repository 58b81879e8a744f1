package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileStorage overwrites a single file with the current track. Format "text" writes the
// track name only, "json" writes the whole TrackState.
type FileStorage struct {
	logger   *logrus.Logger
	filePath string
	format   string
}

func NewFileStorage(logger *logrus.Logger, filePath, format string) (*FileStorage, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file storage: empty path")
	}
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("file storage: unknown format %q", format)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return nil, err
	}

	return &FileStorage{
		logger:   logger,
		filePath: filePath,
		format:   format,
	}, nil
}

func (s *FileStorage) Name() string { return "file" }

func (s *FileStorage) Write(_ context.Context, state TrackState) error {
	var data []byte
	switch s.format {
	case "json":
		b, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return &PersistError{Backend: s.Name(), Err: err}
		}
		data = append(b, '\n')
	default:
		data = []byte(state.Track)
	}

	if err := writeFileAtomic(s.filePath, data); err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}
	s.logger.Debugf("Wrote %d bytes to %s", len(data), s.filePath)
	return nil
}

func (s *FileStorage) Load(_ context.Context) (*TrackState, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // File does not exist, will create when storing
		}
		return nil, err
	}

	if s.format == "json" {
		var state TrackState
		if err := json.Unmarshal(data, &state); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.filePath, err)
		}
		return &state, nil
	}

	track := strings.TrimSpace(string(data))
	if track == "" {
		return nil, nil
	}
	return &TrackState{Track: track}, nil
}

func (s *FileStorage) Close() error { return nil }

// writeFileAtomic writes data to a temp file in the target directory and renames it
// over path, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
