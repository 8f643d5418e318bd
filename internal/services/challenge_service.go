package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/cache"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

const challengeCachePrefix = "challenge:"

type challengeService struct {
	repo      repositories.ChallengeRepository
	cache     cache.CacheService
	cacheTTL  time.Duration
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
}

func NewChallengeService(repo repositories.ChallengeRepository, cacheService cache.CacheService, cacheTTL time.Duration, logger *slog.Logger, validator *validator.Validator) ChallengeService {
	return &challengeService{
		repo:      repo,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "lesson-service", Component: "challenge"}),
		validator: validator,
	}
}

// ===== CORE CHALLENGE OPERATIONS =====

func (s *challengeService) Create(ctx context.Context, req *ChallengeRequest) (challenge *models.Challenge, err error) {
	op := s.opLogger.WithOperation(ctx, "create_challenge", "")
	defer func() { op.LogResult(req.ID, "challenge", err) }()

	challenge, err = s.buildChallenge(req)
	if err != nil {
		return nil, err
	}

	if err = s.repo.Create(ctx, challenge); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrChallengeAlreadyExists
		}
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return challenge, nil
}

func (s *challengeService) Update(ctx context.Context, id string, req *ChallengeRequest) (challenge *models.Challenge, err error) {
	op := s.opLogger.WithOperation(ctx, "update_challenge", "")
	defer func() { op.LogResult(id, "challenge", err) }()

	req.ID = id
	challenge, err = s.buildChallenge(req)
	if err != nil {
		return nil, err
	}

	if err = s.repo.Update(ctx, challenge); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	s.evict(ctx, id)
	return challenge, nil
}

func (s *challengeService) Delete(ctx context.Context, id string) (err error) {
	op := s.opLogger.WithOperation(ctx, "delete_challenge", "")
	defer func() { op.LogResult(id, "challenge", err) }()

	if err = s.repo.Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("failed to delete challenge: %w", err)
	}

	s.evict(ctx, id)
	return nil
}

// ===== GET OPERATIONS =====

func (s *challengeService) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var cached models.Challenge
	if err := s.cache.Get(ctx, challengeCachePrefix+id, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Challenge cache read failed", "challenge_id", id, "error", err)
	}

	challenge, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	if err := s.cache.Set(ctx, challengeCachePrefix+id, challenge, s.cacheTTL); err != nil {
		s.logger.Warn("Challenge cache write failed", "challenge_id", id, "error", err)
	}

	return challenge, nil
}

func (s *challengeService) GetBySlug(ctx context.Context, slug string) (*models.Challenge, error) {
	challenge, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge by slug: %w", err)
	}
	return challenge, nil
}

func (s *challengeService) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error) {
	challenges, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenges, total, nil
}

// ===== HELPERS =====

func (s *challengeService) evict(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, challengeCachePrefix+id); err != nil {
		s.logger.Warn("Challenge cache eviction failed", "challenge_id", id, "error", err)
	}
}

// buildChallenge validates the request and encodes its JSON columns
func (s *challengeService) buildChallenge(req *ChallengeRequest) (*models.Challenge, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.Lesson().ValidateQuestions(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	challenge := &models.Challenge{
		ID:                 req.ID,
		Title:              req.Title,
		ChallengeType:      req.ChallengeType,
		HelpCategory:       req.HelpCategory,
		Description:        req.Description,
		Instructions:       req.Instructions,
		Explanation:        req.Explanation,
		SuperBlock:         req.SuperBlock,
		Block:              req.Block,
		BlockName:          req.BlockName,
		Slug:               lo.Ternary(req.Slug != "", req.Slug, req.ID), // slugs are unique
		TranslationPending: req.TranslationPending,
		VideoID:            req.VideoID,
	}

	columns := []struct {
		dst   *datatypes.JSON
		value interface{}
		skip  bool
	}{
		{&challenge.VideoLocaleIDs, req.VideoLocaleIDs, req.VideoLocaleIDs == nil},
		{&challenge.BilibiliIDs, req.BilibiliIDs, req.BilibiliIDs == nil},
		{&challenge.Scene, req.Scene, req.Scene == nil},
		{&challenge.Tests, nonNil(req.Tests), false},
		{&challenge.Questions, nonNil(req.Questions), false},
		{&challenge.Assignments, nonNil(req.Assignments), false},
	}
	for _, col := range columns {
		if col.skip {
			continue
		}
		data, err := json.Marshal(col.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChallengeInvalidData, err)
		}
		*col.dst = datatypes.JSON(data)
	}

	return challenge, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
