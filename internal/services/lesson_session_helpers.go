package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/SAP-F-2025/lesson-service/internal/events"
	"github.com/SAP-F-2025/lesson-service/internal/gate"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/samber/lo"
)

// lessonContent is the decoded part of a challenge a session needs.
type lessonContent struct {
	challenge   *models.Challenge
	questions   []models.Question
	assignments []string
}

func (s *lessonSessionService) loadContent(ctx context.Context, challengeID string) (*lessonContent, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	questions, err := challenge.ParsedQuestions()
	if err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrChallengeInvalidData, err)
	}
	assignments, err := challenge.ParsedAssignments()
	if err != nil {
		return nil, fmt.Errorf("%w: assignments: %v", ErrChallengeInvalidData, err)
	}

	return &lessonContent{challenge: challenge, questions: questions, assignments: assignments}, nil
}

// reset points the session at this content with a fresh answer state.
func (c *lessonContent) reset(session *models.LessonSession, meta models.ChallengeMeta) {
	kind := c.challenge.ChallengeType.Kind()
	solutions := lo.Map(c.questions, func(q models.Question, _ int) int { return q.Solution })

	meta.ID = c.challenge.ID
	session.ChallengeID = c.challenge.ID
	session.ChallengeTitle = c.challenge.Title
	session.Kind = kind
	session.Meta = meta.MergeChallenge(c.challenge)
	session.State = gate.New(solutions, len(c.assignments), kind == models.LessonKindOdin)
	session.Completed = false
	session.CompletedAt = nil
}

// fits reports whether the session's answer state was sized for this
// content. Editing or re-importing a challenge can add or drop questions and
// assignments under a mounted page.
func (c *lessonContent) fits(state gate.State) bool {
	if len(c.questions) != state.QuestionCount() {
		return false
	}
	return !state.TracksAssignments() || len(c.assignments) == state.TotalAssignments()
}

// loadSession fetches a session and checks it belongs to learnerID.
func (s *lessonSessionService) loadSession(ctx context.Context, sessionID, learnerID, action string) (*models.LessonSession, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load lesson session: %w", err)
	}

	if session.LearnerID != learnerID {
		return nil, NewPermissionError(learnerID, sessionID, "lesson_session", action, "session belongs to another learner")
	}
	return session, nil
}

// announce emits the mount sequence for the session's current lesson.
func (s *lessonSessionService) announce(ctx context.Context, session *models.LessonSession, content *lessonContent) {
	s.publish(ctx, events.NewTestsInitializedEvent(session.ChallengeID, session.ID, content.challenge.Tests))
	s.publish(ctx, events.NewChallengeMetaUpdatedEvent(session.ID, session.Meta))
	s.publish(ctx, events.NewChallengeMountedEvent(session.Meta.ID, session.ID, session.LearnerID))
}

// resync emits the identity-change sequence: metadata, then mounted.
func (s *lessonSessionService) resync(ctx context.Context, session *models.LessonSession) {
	s.publish(ctx, events.NewChallengeMetaUpdatedEvent(session.ID, session.Meta))
	s.publish(ctx, events.NewChallengeMountedEvent(session.Meta.ID, session.ID, session.LearnerID))
}

// publish never fails the command: the state change is already stored.
func (s *lessonSessionService) publish(ctx context.Context, event *events.LessonEvent) {
	if err := s.publisher.PublishLessonEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish lesson event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}

func buildSessionResponse(session *models.LessonSession, content *lessonContent, notes []gate.Notification) *SessionResponse {
	state := session.State
	selected := state.Selected()
	verdicts := state.Feedback()
	submitted := state.Submitted()

	questions := lo.Map(content.questions, func(q models.Question, i int) QuestionView {
		view := QuestionView{
			Text:    q.Text,
			Answers: lo.Map(q.Answers, func(a models.Answer, _ int) string { return a.Answer }),
		}
		if i < len(selected) && selected[i] != gate.NoChoice {
			choice := int(selected[i])
			view.Selected = &choice
		}
		if verdicts != nil && i < len(verdicts) {
			verdict := verdicts[i]
			view.Verdict = &verdict
			if c := int(submitted[i]); c >= 0 && c < len(q.Answers) && q.Answers[c].Feedback != "" {
				feedback := q.Answers[c].Feedback
				view.Feedback = &feedback
			}
		}
		return view
	})

	resp := &SessionResponse{
		ID:                      session.ID,
		ChallengeID:             session.ChallengeID,
		Title:                   session.ChallengeTitle,
		Kind:                    session.Kind,
		Questions:               questions,
		ShowFeedback:            state.ShowFeedback(),
		AllCorrect:              state.ShowFeedback() && state.AllCorrect(),
		AssignmentsCompleted:    state.AssignmentsCompleted(),
		AllAssignmentsCompleted: state.AllAssignmentsComplete(),
		Completed:               session.Completed,
		Notifications:           notes,
		MountedAt:               session.MountedAt,
		UpdatedAt:               session.UpdatedAt,
	}
	if session.Kind == models.LessonKindOdin {
		resp.Assignments = content.assignments
	}
	return resp
}

// ===== SESSION LOCKS =====

const sessionLockStripes = 64

// sessionLocks serializes commands per session id over a fixed set of
// mutexes.
type sessionLocks struct {
	stripes [sessionLockStripes]sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{}
}

func (l *sessionLocks) lock(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	mu := &l.stripes[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}
