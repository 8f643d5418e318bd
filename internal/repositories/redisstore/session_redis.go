package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "lesson-session:"

// SessionRedis stores lesson sessions in redis with a sliding TTL
type SessionRedis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSessionRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) repositories.SessionStore {
	return &SessionRedis{
		client: client,
		ttl:    ttl,
		logger: logger.Named("session_store"),
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionRedis) Save(ctx context.Context, session *models.LessonSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.logger.Debug("session saved", zap.String("session_id", session.ID), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *SessionRedis) Get(ctx context.Context, id string) (*models.LessonSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("failed to load session", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session models.LessonSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *SessionRedis) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		s.logger.Error("failed to delete session", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if removed == 0 {
		return repositories.ErrSessionNotFound
	}
	return nil
}
