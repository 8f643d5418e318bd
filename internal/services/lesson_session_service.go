package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/events"
	"github.com/SAP-F-2025/lesson-service/internal/gate"
	"github.com/SAP-F-2025/lesson-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type lessonSessionService struct {
	challenges ChallengeService
	store      repositories.SessionStore
	publisher  events.EventPublisher
	logger     *slog.Logger
	opLogger   *ServiceLogger
	validator  *validator.Validator
	locks      *sessionLocks
	now        func() time.Time
}

func NewLessonSessionService(
	challenges ChallengeService,
	store repositories.SessionStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) LessonSessionService {
	return &lessonSessionService{
		challenges: challenges,
		store:      store,
		publisher:  publisher,
		logger:     logger,
		opLogger:   NewServiceLogger(logger, LogConfig{Service: "lesson-service", Component: "lesson_session"}),
		validator:  validator,
		locks:      newSessionLocks(),
		now:        time.Now,
	}
}

// ===== LIFECYCLE =====

// Mount creates a fresh session for a lesson page and announces it to the
// host: tests first, then metadata, then the mounted signal.
func (s *lessonSessionService) Mount(ctx context.Context, req *MountRequest, learnerID string) (resp *SessionResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "mount_lesson", learnerID)
	var sessionID string
	defer func() { op.LogResult(sessionID, "lesson_session", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	content, err := s.loadContent(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.LessonSession{
		ID:          uuid.NewString(),
		LearnerID:   learnerID,
		MountedAt:   now,
		UpdatedAt:   now,
		ChallengeID: content.challenge.ID,
	}
	sessionID = session.ID
	content.reset(session, req.Meta)

	if err = s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save lesson session: %w", err)
	}

	metrics.SessionMounted()
	s.announce(ctx, session, content)

	return buildSessionResponse(session, content, nil), nil
}

// SyncIdentity re-synchronizes a mounted page after the host switched
// lessons, or after the challenge was edited under it. Nothing changes while
// the title stays the same and the answer state still fits the content.
// Tests are initialized once per mount and are not re-sent.
func (s *lessonSessionService) SyncIdentity(ctx context.Context, sessionID string, req *SyncIdentityRequest, learnerID string) (resp *SessionResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "sync_identity", learnerID)
	defer func() { op.LogResult(sessionID, "lesson_session", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.loadSession(ctx, sessionID, learnerID, "sync_identity")
	if err != nil {
		return nil, err
	}

	content, err := s.loadContent(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}

	if content.challenge.Title == session.ChallengeTitle && content.fits(session.State) {
		return buildSessionResponse(session, content, nil), nil
	}

	content.reset(session, req.Meta)
	session.UpdatedAt = s.now()

	if err = s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save lesson session: %w", err)
	}

	s.resync(ctx, session)

	return buildSessionResponse(session, content, nil), nil
}

func (s *lessonSessionService) Get(ctx context.Context, sessionID string, learnerID string) (*SessionResponse, error) {
	session, err := s.loadSession(ctx, sessionID, learnerID, "get")
	if err != nil {
		return nil, err
	}

	content, err := s.loadContent(ctx, session.ChallengeID)
	if err != nil {
		return nil, err
	}
	if !content.fits(session.State) {
		return nil, ErrSessionStale
	}

	return buildSessionResponse(session, content, nil), nil
}

// Unmount discards the session.
func (s *lessonSessionService) Unmount(ctx context.Context, sessionID string, learnerID string) (err error) {
	op := s.opLogger.WithOperation(ctx, "unmount_lesson", learnerID)
	defer func() { op.LogResult(sessionID, "lesson_session", err) }()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	if _, err = s.loadSession(ctx, sessionID, learnerID, "unmount"); err != nil {
		return err
	}

	if err = s.store.Delete(ctx, sessionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete lesson session: %w", err)
	}
	metrics.SessionUnmounted()
	return nil
}

// ===== GATE COMMANDS =====

func (s *lessonSessionService) SelectOption(ctx context.Context, sessionID string, req *SelectOptionRequest, learnerID string) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	return s.apply(ctx, "select_option", sessionID, learnerID, func(session *models.LessonSession, content *lessonContent) (gate.State, []gate.Notification, error) {
		if errs := s.validator.Lesson().ValidateOption(content.questions, req.QuestionIndex, req.OptionIndex); len(errs) > 0 {
			return gate.State{}, nil, errs
		}
		return session.State.SelectOption(req.QuestionIndex, gate.Choice(req.OptionIndex)), nil, nil
	})
}

func (s *lessonSessionService) ToggleAssignment(ctx context.Context, sessionID string, req *ToggleAssignmentRequest, learnerID string) (*SessionResponse, error) {
	return s.apply(ctx, "toggle_assignment", sessionID, learnerID, func(session *models.LessonSession, content *lessonContent) (gate.State, []gate.Notification, error) {
		if len(content.assignments) == 0 {
			return gate.State{}, nil, NewBusinessRuleError("no_assignments", "lesson has no assignments to toggle",
				map[string]interface{}{"challenge_id": session.ChallengeID})
		}
		return session.State.ToggleAssignment(req.Checked, session.State.TotalAssignments()), nil, nil
	})
}

func (s *lessonSessionService) Submit(ctx context.Context, sessionID string, learnerID string) (*SessionResponse, error) {
	return s.apply(ctx, "submit_answers", sessionID, learnerID, func(session *models.LessonSession, _ *lessonContent) (gate.State, []gate.Notification, error) {
		next, notes := session.State.Submit()
		return next, notes, nil
	})
}

type gateCommand func(session *models.LessonSession, content *lessonContent) (gate.State, []gate.Notification, error)

// apply runs one gate command under the session lock, persists the new
// state and forwards the resulting notifications.
func (s *lessonSessionService) apply(ctx context.Context, operation, sessionID, learnerID string, cmd gateCommand) (resp *SessionResponse, err error) {
	op := s.opLogger.WithOperation(ctx, operation, learnerID)
	defer func() {
		op.LogResult(sessionID, "lesson_session", err)
		metrics.ObserveCommand(operation, err)
	}()

	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.loadSession(ctx, sessionID, learnerID, operation)
	if err != nil {
		return nil, err
	}

	content, err := s.loadContent(ctx, session.ChallengeID)
	if err != nil {
		return nil, err
	}
	if !content.fits(session.State) {
		return nil, ErrSessionStale
	}

	next, notes, err := cmd(session, content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session.State = next
	session.UpdatedAt = now

	completed := lo.Contains(notes, gate.NotifyCompletion)
	if completed && !session.Completed {
		session.Completed = true
		session.CompletedAt = &now
	}

	if err = s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save lesson session: %w", err)
	}

	if completed {
		metrics.ObserveCompletion(int(content.challenge.ChallengeType))
		s.publish(ctx, events.NewChallengeCompletedEvent(session.ChallengeID, session.ID, session.LearnerID, now))
	}

	return buildSessionResponse(session, content, notes), nil
}
