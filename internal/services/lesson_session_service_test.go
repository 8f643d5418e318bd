package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/cache"
	"github.com/SAP-F-2025/lesson-service/internal/events"
	"github.com/SAP-F-2025/lesson-service/internal/gate"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories/memory"
	"github.com/SAP-F-2025/lesson-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sessionFixture struct {
	service   LessonSessionService
	repo      *MockChallengeRepository
	publisher *events.MockEventPublisher
}

func newSessionFixture(t *testing.T, challenges ...*models.Challenge) *sessionFixture {
	repo := &MockChallengeRepository{}
	for _, c := range challenges {
		repo.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	}
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)

	publisher := events.NewMockEventPublisher(testLogger())
	manager := NewServiceManager(repo, memory.NewSessionMemory(time.Hour), cache.NewNoopCache(), time.Minute,
		publisher, testLogger(), validator.New())

	return &sessionFixture{service: manager.LessonSession(), repo: repo, publisher: publisher}
}

func (f *sessionFixture) eventTypes() []events.EventType {
	var types []events.EventType
	for _, e := range f.publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	return types
}

func (f *sessionFixture) mount(t *testing.T, challengeID, learnerID string) *SessionResponse {
	t.Helper()
	resp, err := f.service.Mount(context.Background(), &MountRequest{ChallengeID: challengeID}, learnerID)
	require.NoError(t, err)
	return resp
}

func TestMount_CreatesFreshSessionAndAnnounces(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))

	resp, err := f.service.Mount(context.Background(), &MountRequest{
		ChallengeID: "video-1",
		Meta:        models.ChallengeMeta{NextChallengePath: "/learn/next"},
	}, "learner-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, models.LessonKindVideo, resp.Kind)
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		assert.Nil(t, q.Selected)
		assert.Nil(t, q.Verdict)
		assert.Nil(t, q.Feedback)
	}
	assert.False(t, resp.ShowFeedback)
	assert.True(t, resp.AllAssignmentsCompleted)

	assert.Equal(t, []events.EventType{
		events.EventTestsInitialized,
		events.EventChallengeMetaUpdated,
		events.EventChallengeMounted,
	}, f.eventTypes())

	meta := f.publisher.GetPublishedEvents()[1].Data.(events.ChallengeMetaUpdatedEvent).Meta
	assert.Equal(t, "video-1", meta.ID)
	assert.Equal(t, "Introduction to HTML", meta.Title)
	assert.Equal(t, "HTML-CSS", meta.HelpCategory)
	assert.Equal(t, "/learn/next", meta.NextChallengePath)
}

func TestMount_UnknownChallenge(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.service.Mount(context.Background(), &MountRequest{ChallengeID: "missing"}, "learner-1")

	assert.ErrorIs(t, err, ErrChallengeNotFound)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestSubmit_AllCorrectCompletesOnce(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")
	f.publisher.ClearEvents()

	_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 0}, "learner-1")
	require.NoError(t, err)
	_, err = f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 1, OptionIndex: 1}, "learner-1")
	require.NoError(t, err)

	resp, err := f.service.Submit(ctx, session.ID, "learner-1")
	require.NoError(t, err)

	assert.True(t, resp.ShowFeedback)
	assert.True(t, resp.AllCorrect)
	assert.True(t, resp.Completed)
	assert.Equal(t, []gate.Notification{gate.NotifyCompletion}, resp.Notifications)
	assert.Equal(t, gate.Verdict{Answered: true, Correct: true}, *resp.Questions[0].Verdict)
	assert.Equal(t, "Right", *resp.Questions[0].Feedback)
	assert.Equal(t, []events.EventType{events.EventChallengeCompleted}, f.eventTypes())

	completed := f.publisher.GetPublishedEvents()[0].Data.(events.ChallengeCompletedEvent)
	assert.Equal(t, "learner-1", completed.LearnerID)
	assert.Equal(t, session.ID, completed.SessionID)
}

func TestSubmit_WrongAnswerOnlyShowsFeedback(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")
	f.publisher.ClearEvents()

	_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 1}, "learner-1")
	require.NoError(t, err)

	resp, err := f.service.Submit(ctx, session.ID, "learner-1")
	require.NoError(t, err)

	assert.True(t, resp.ShowFeedback)
	assert.False(t, resp.AllCorrect)
	assert.False(t, resp.Completed)
	assert.Empty(t, resp.Notifications)
	assert.Equal(t, "Not quite", *resp.Questions[0].Feedback)
	assert.Equal(t, gate.Verdict{Answered: false, Correct: false}, *resp.Questions[1].Verdict)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestSelectOption_AfterSubmitDoesNotChangeVerdicts(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 0}, "learner-1")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, session.ID, "learner-1")
	require.NoError(t, err)

	resp, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 1}, "learner-1")
	require.NoError(t, err)

	assert.Equal(t, 1, *resp.Questions[0].Selected)
	assert.True(t, resp.Questions[0].Verdict.Correct)
}

func TestSelectOption_RejectsOutOfRangeIndices(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	cases := []SelectOptionRequest{
		{QuestionIndex: 2, OptionIndex: 0},
		{QuestionIndex: 0, OptionIndex: 2},
		{QuestionIndex: -1, OptionIndex: 0},
	}
	for _, req := range cases {
		req := req
		_, err := f.service.SelectOption(ctx, session.ID, &req, "learner-1")
		assert.True(t, IsValidation(err), "request %+v", req)
	}
}

func TestOdinSession_RequiresAssignments(t *testing.T) {
	f := newSessionFixture(t, odinChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "odin-1", "learner-1")
	assert.Equal(t, []string{"Read the article", "Watch the video"}, session.Assignments)
	assert.False(t, session.AllAssignmentsCompleted)

	_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 0}, "learner-1")
	require.NoError(t, err)

	resp, err := f.service.Submit(ctx, session.ID, "learner-1")
	require.NoError(t, err)
	assert.True(t, resp.AllCorrect)
	assert.Empty(t, resp.Notifications)

	for i := 0; i < 2; i++ {
		resp, err = f.service.ToggleAssignment(ctx, session.ID, &ToggleAssignmentRequest{Checked: true}, "learner-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, resp.AssignmentsCompleted)
	assert.True(t, resp.AllAssignmentsCompleted)

	resp, err = f.service.Submit(ctx, session.ID, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, []gate.Notification{gate.NotifyCompletion}, resp.Notifications)
	assert.True(t, resp.Completed)
}

func TestToggleAssignment_UncheckClampsAtZero(t *testing.T) {
	f := newSessionFixture(t, odinChallenge(t))
	session := f.mount(t, "odin-1", "learner-1")

	resp, err := f.service.ToggleAssignment(context.Background(), session.ID, &ToggleAssignmentRequest{Checked: false}, "learner-1")
	require.NoError(t, err)

	assert.Equal(t, 0, resp.AssignmentsCompleted)
	assert.False(t, resp.AllAssignmentsCompleted)
}

func TestToggleAssignment_VideoLessonHasNoAssignments(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	session := f.mount(t, "video-1", "learner-1")

	_, err := f.service.ToggleAssignment(context.Background(), session.ID, &ToggleAssignmentRequest{Checked: true}, "learner-1")
	assert.True(t, IsBusinessRule(err))
}

func TestSyncIdentity(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t), odinChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: 0, OptionIndex: 0}, "learner-1")
	require.NoError(t, err)
	f.publisher.ClearEvents()

	t.Run("same lesson is a no-op", func(t *testing.T) {
		resp, err := f.service.SyncIdentity(ctx, session.ID, &SyncIdentityRequest{ChallengeID: "video-1"}, "learner-1")
		require.NoError(t, err)
		assert.Equal(t, 0, *resp.Questions[0].Selected)
		assert.Empty(t, f.publisher.GetPublishedEvents())
	})

	t.Run("new lesson resets and re-announces", func(t *testing.T) {
		resp, err := f.service.SyncIdentity(ctx, session.ID, &SyncIdentityRequest{ChallengeID: "odin-1"}, "learner-1")
		require.NoError(t, err)

		assert.Equal(t, session.ID, resp.ID)
		assert.Equal(t, "odin-1", resp.ChallengeID)
		assert.Equal(t, models.LessonKindOdin, resp.Kind)
		require.Len(t, resp.Questions, 1)
		assert.Nil(t, resp.Questions[0].Selected)
		assert.Equal(t, []events.EventType{
			events.EventChallengeMetaUpdated,
			events.EventChallengeMounted,
		}, f.eventTypes())
	})
}

func TestCommands_RejectSessionAfterChallengeEdit(t *testing.T) {
	video := videoChallenge(t)
	odin := odinChallenge(t)
	f := newSessionFixture(t, video, odin)
	ctx := context.Background()
	videoSession := f.mount(t, "video-1", "learner-1")
	odinSession := f.mount(t, "odin-1", "learner-1")

	questions, err := video.ParsedQuestions()
	require.NoError(t, err)
	questions = append(questions, models.Question{
		Text:     "Which tag makes a link?",
		Answers:  []models.Answer{{Answer: "<a>"}, {Answer: "<p>"}},
		Solution: 1,
	})
	video.Questions = mustJSON(t, questions)
	odin.Assignments = mustJSON(t, []string{"Read the article"})

	assert.NotPanics(t, func() {
		_, err = f.service.SelectOption(ctx, videoSession.ID, &SelectOptionRequest{QuestionIndex: 2, OptionIndex: 0}, "learner-1")
	})
	assert.ErrorIs(t, err, ErrSessionStale)
	assert.True(t, IsConflict(err))

	_, err = f.service.Get(ctx, videoSession.ID, "learner-1")
	assert.ErrorIs(t, err, ErrSessionStale)

	_, err = f.service.ToggleAssignment(ctx, odinSession.ID, &ToggleAssignmentRequest{Checked: true}, "learner-1")
	assert.ErrorIs(t, err, ErrSessionStale)

	t.Run("resync with the same title rebuilds the state", func(t *testing.T) {
		f.publisher.ClearEvents()

		resp, err := f.service.SyncIdentity(ctx, videoSession.ID, &SyncIdentityRequest{ChallengeID: "video-1"}, "learner-1")
		require.NoError(t, err)
		require.Len(t, resp.Questions, 3)
		assert.Equal(t, []events.EventType{
			events.EventChallengeMetaUpdated,
			events.EventChallengeMounted,
		}, f.eventTypes())

		resp, err = f.service.SelectOption(ctx, videoSession.ID, &SelectOptionRequest{QuestionIndex: 2, OptionIndex: 0}, "learner-1")
		require.NoError(t, err)
		assert.Equal(t, 0, *resp.Questions[2].Selected)
	})
}

func TestSession_BelongsToMountingLearner(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	_, err := f.service.Get(ctx, session.ID, "learner-2")
	assert.ErrorIs(t, err, ErrSessionAccessDenied)
	assert.True(t, IsForbidden(err))

	_, err = f.service.Submit(ctx, session.ID, "learner-2")
	assert.True(t, IsForbidden(err))
}

func TestUnmount_DiscardsSession(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	require.NoError(t, f.service.Unmount(ctx, session.ID, "learner-1"))

	_, err := f.service.Get(ctx, session.ID, "learner-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.service.Unmount(ctx, session.ID, "learner-1"), ErrSessionNotFound)
}

func TestConcurrentSelectionsAreSerialized(t *testing.T) {
	f := newSessionFixture(t, videoChallenge(t))
	ctx := context.Background()
	session := f.mount(t, "video-1", "learner-1")

	var wg sync.WaitGroup
	for q := 0; q < 2; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			_, err := f.service.SelectOption(ctx, session.ID, &SelectOptionRequest{QuestionIndex: q, OptionIndex: q}, "learner-1")
			assert.NoError(t, err)
		}(q)
	}
	wg.Wait()

	resp, err := f.service.Get(ctx, session.ID, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, *resp.Questions[0].Selected)
	assert.Equal(t, 1, *resp.Questions[1].Selected)
}
