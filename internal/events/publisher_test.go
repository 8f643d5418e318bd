package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, publisher.PublishLessonEvent(ctx, NewChallengeMountedEvent("c1", "s1", "learner")))
	require.NoError(t, publisher.PublishLessonEvent(ctx, NewChallengeCompletedEvent("c1", "s1", "learner", time.Now())))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventChallengeMounted, published[0].Type)
	assert.Equal(t, EventChallengeCompleted, published[1].Type)

	completed, ok := published[1].Data.(ChallengeCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, "completion", completed.Modal)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestEventEnvelope(t *testing.T) {
	event := NewChallengeMetaUpdatedEvent("s1", models.ChallengeMeta{ID: "c1", Title: "Intro"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "lesson-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())
	assert.NotEqual(t, event.ID, NewChallengeMetaUpdatedEvent("s1", models.ChallengeMeta{}).ID)
}

func TestTestsInitializedEvent_ForwardsTestsUnmodified(t *testing.T) {
	tests := []byte(`[{"text":"a","testString":"assert(true)"}]`)

	event := NewTestsInitializedEvent("c1", "s1", tests)
	data := event.Data.(TestsInitializedEvent)
	assert.JSONEq(t, string(tests), string(data.Tests))

	empty := NewTestsInitializedEvent("c1", "s1", nil).Data.(TestsInitializedEvent)
	assert.JSONEq(t, `[]`, string(empty.Tests))
}

func TestChannelEventPublisher_DeliversToSubscribers(t *testing.T) {
	publisher := NewChannelEventPublisher("lesson-events", testLogger())
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := publisher.Subscribe(ctx)
	require.NoError(t, err)

	event := NewChallengeMountedEvent("c1", "s1", "learner")
	require.NoError(t, publisher.PublishLessonEvent(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventChallengeMounted), msg.Metadata.Get("event_type"))

		var decoded LessonEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventChallengeMounted, decoded.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
