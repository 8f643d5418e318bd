package services

import (
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/cache"
	"github.com/SAP-F-2025/lesson-service/internal/events"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
)

type serviceManager struct {
	challenge     ChallengeService
	lessonSession LessonSessionService
}

// NewServiceManager wires the services over shared infrastructure
func NewServiceManager(
	challengeRepo repositories.ChallengeRepository,
	sessionStore repositories.SessionStore,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	challengeService := NewChallengeService(challengeRepo, cacheService, cacheTTL, logger, validator)

	return &serviceManager{
		challenge:     challengeService,
		lessonSession: NewLessonSessionService(challengeService, sessionStore, publisher, logger, validator),
	}
}

func (m *serviceManager) Challenge() ChallengeService {
	return m.challenge
}

func (m *serviceManager) LessonSession() LessonSessionService {
	return m.lessonSession
}
