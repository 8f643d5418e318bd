package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// MockChallengeRepository is a mock implementation of ChallengeRepository
type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) Upsert(ctx context.Context, challenges []*models.Challenge) error {
	args := m.Called(ctx, challenges)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetBySlug(ctx context.Context, slug string) (*models.Challenge, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockChallengeRepository) List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Challenge), args.Get(1).(int64), args.Error(2)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustJSON(t *testing.T, v interface{}) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(data)
}

// videoChallenge has two questions answered by options 0 and 1.
func videoChallenge(t *testing.T) *models.Challenge {
	return &models.Challenge{
		ID:            "video-1",
		Title:         "Introduction to HTML",
		ChallengeType: models.ChallengeTypeVideo,
		HelpCategory:  "HTML-CSS",
		Tests:         mustJSON(t, []models.Test{{Text: "t", TestString: "assert(true)"}}),
		Questions: mustJSON(t, []models.Question{
			{
				Text: "What does HTML stand for?",
				Answers: []models.Answer{
					{Answer: "Hyper Text Markup Language", Feedback: "Right"},
					{Answer: "Home Tool Markup Language", Feedback: "Not quite"},
				},
				Solution: 1,
			},
			{
				Text:     "Which tag makes a paragraph?",
				Answers:  []models.Answer{{Answer: "<a>"}, {Answer: "<p>"}, {Answer: "<div>"}},
				Solution: 2,
			},
		}),
		Assignments: mustJSON(t, []string{}),
	}
}

// odinChallenge has one question and two assignments.
func odinChallenge(t *testing.T) *models.Challenge {
	return &models.Challenge{
		ID:            "odin-1",
		Title:         "Working with Text",
		ChallengeType: models.ChallengeTypeOdin,
		HelpCategory:  "HTML-CSS",
		Questions: mustJSON(t, []models.Question{
			{Text: "Is <strong> bold?", Answers: []models.Answer{{Answer: "yes"}, {Answer: "no"}}, Solution: 1},
		}),
		Assignments: mustJSON(t, []string{"Read the article", "Watch the video"}),
	}
}
