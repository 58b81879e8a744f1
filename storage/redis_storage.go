package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"radio-nowplaying/config"
)

// RedisStorage keeps the state as JSON under a single key and optionally publishes
// every update on a channel for live consumers.
type RedisStorage struct {
	logger  *logrus.Logger
	client  *redis.Client
	key     string
	channel string
}

func NewRedisStorage(logger *logrus.Logger, cfg config.Redis) (*RedisStorage, error) {
	if cfg.Key == "" {
		return nil, errors.New("redis storage: empty key")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStorage{
		logger:  logger,
		client:  client,
		key:     cfg.Key,
		channel: cfg.Channel,
	}, nil
}

func (s *RedisStorage) Name() string { return "redis" }

func (s *RedisStorage) Write(ctx context.Context, state TrackState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key, data, 0)
		if s.channel != "" {
			pipe.Publish(ctx, s.channel, data)
		}
		return nil
	})
	if err != nil {
		return &PersistError{Backend: s.Name(), Err: err}
	}
	s.logger.Debugf("Stored now playing in redis key %s", s.key)
	return nil
}

func (s *RedisStorage) Load(ctx context.Context) (*TrackState, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, &PersistError{Backend: s.Name(), Err: err}
	}
	var state TrackState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding redis key %s: %w", s.key, err)
	}
	return &state, nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
