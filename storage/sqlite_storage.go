package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/sirupsen/logrus"
)

// SQLiteStorage keeps the state in a single-row table.
type SQLiteStorage struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewSQLiteStorage(logger *logrus.Logger, dbPath string) (*SQLiteStorage, error) {
	logger.Debugf("Opening SQLite storage at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{
		logger: logger,
		db:     db,
	}

	err = storage.initSQLite()
	if err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (s *SQLiteStorage) initSQLite() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS now_playing (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		track TEXT NOT NULL,
		source TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Write(ctx context.Context, state TrackState) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO now_playing (id, track, source, timestamp) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET track = excluded.track, source = excluded.source,
		timestamp = excluded.timestamp, updated_at = CURRENT_TIMESTAMP`,
		state.Track, state.Source, state.Timestamp)
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}
	return nil
}

func (s *SQLiteStorage) Load(ctx context.Context) (*TrackState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT track, source, timestamp FROM now_playing WHERE id = 1`)
	var state TrackState
	err := row.Scan(&state.Track, &state.Source, &state.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
