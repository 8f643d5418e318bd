package events

import (
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/google/uuid"
)

// EventType represents the host notifications a lesson page emits
type EventType string

const (
	EventChallengeMounted     EventType = "challenge.mounted"
	EventChallengeMetaUpdated EventType = "challenge.meta_updated"
	EventTestsInitialized     EventType = "challenge.tests_initialized"
	EventChallengeCompleted   EventType = "challenge.completed"
)

const (
	eventSource  = "lesson-service"
	eventVersion = "1.0"
)

// LessonEvent is the envelope for every published event
type LessonEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ChallengeMountedEvent struct {
	ChallengeID string `json:"challenge_id"`
	SessionID   string `json:"session_id"`
	LearnerID   string `json:"learner_id"`
}

type ChallengeMetaUpdatedEvent struct {
	SessionID string               `json:"session_id"`
	Meta      models.ChallengeMeta `json:"meta"`
}

type TestsInitializedEvent struct {
	ChallengeID string          `json:"challenge_id"`
	SessionID   string          `json:"session_id"`
	Tests       json.RawMessage `json:"tests"`
}

type ChallengeCompletedEvent struct {
	ChallengeID string    `json:"challenge_id"`
	SessionID   string    `json:"session_id"`
	LearnerID   string    `json:"learner_id"`
	CompletedAt time.Time `json:"completed_at"`
	Modal       string    `json:"modal"`
}

// Event factory functions

func NewChallengeMountedEvent(challengeID, sessionID, learnerID string) *LessonEvent {
	return newEvent(EventChallengeMounted, ChallengeMountedEvent{
		ChallengeID: challengeID,
		SessionID:   sessionID,
		LearnerID:   learnerID,
	})
}

func NewChallengeMetaUpdatedEvent(sessionID string, meta models.ChallengeMeta) *LessonEvent {
	return newEvent(EventChallengeMetaUpdated, ChallengeMetaUpdatedEvent{
		SessionID: sessionID,
		Meta:      meta,
	})
}

// NewTestsInitializedEvent forwards tests exactly as stored on the challenge.
func NewTestsInitializedEvent(challengeID, sessionID string, tests []byte) *LessonEvent {
	raw := json.RawMessage(tests)
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}
	return newEvent(EventTestsInitialized, TestsInitializedEvent{
		ChallengeID: challengeID,
		SessionID:   sessionID,
		Tests:       raw,
	})
}

func NewChallengeCompletedEvent(challengeID, sessionID, learnerID string, completedAt time.Time) *LessonEvent {
	return newEvent(EventChallengeCompleted, ChallengeCompletedEvent{
		ChallengeID: challengeID,
		SessionID:   sessionID,
		LearnerID:   learnerID,
		CompletedAt: completedAt,
		Modal:       "completion",
	})
}

func newEvent(eventType EventType, data interface{}) *LessonEvent {
	return &LessonEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// GenerateEventID returns a random event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
