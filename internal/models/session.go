package models

import (
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/gate"
)

// LessonSession is the answer state owned by one mounted lesson page.
type LessonSession struct {
	ID             string        `json:"id"`
	LearnerID      string        `json:"learner_id"`
	ChallengeID    string        `json:"challenge_id"`
	ChallengeTitle string        `json:"challenge_title"`
	Kind           LessonKind    `json:"kind"`
	Meta           ChallengeMeta `json:"meta"`
	State          gate.State    `json:"state"`
	Completed      bool          `json:"completed"`
	MountedAt      time.Time     `json:"mounted_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}
