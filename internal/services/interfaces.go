package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/gate"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type ChallengeService interface {
	Create(ctx context.Context, req *ChallengeRequest) (*models.Challenge, error)
	Update(ctx context.Context, id string, req *ChallengeRequest) (*models.Challenge, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	GetBySlug(ctx context.Context, slug string) (*models.Challenge, error)
	List(ctx context.Context, filters repositories.ChallengeFilters) ([]*models.Challenge, int64, error)
	ImportFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error)
}

// LessonSessionService drives the answer state of mounted lesson pages
type LessonSessionService interface {
	Mount(ctx context.Context, req *MountRequest, learnerID string) (*SessionResponse, error)
	SyncIdentity(ctx context.Context, sessionID string, req *SyncIdentityRequest, learnerID string) (*SessionResponse, error)
	SelectOption(ctx context.Context, sessionID string, req *SelectOptionRequest, learnerID string) (*SessionResponse, error)
	ToggleAssignment(ctx context.Context, sessionID string, req *ToggleAssignmentRequest, learnerID string) (*SessionResponse, error)
	Submit(ctx context.Context, sessionID string, learnerID string) (*SessionResponse, error)
	Get(ctx context.Context, sessionID string, learnerID string) (*SessionResponse, error)
	Unmount(ctx context.Context, sessionID string, learnerID string) error
}

type ServiceManager interface {
	Challenge() ChallengeService
	LessonSession() LessonSessionService
}

// ===== REQUESTS =====

type ChallengeRequest struct {
	ID                 string               `json:"id" validate:"required,max=64"`
	Title              string               `json:"title" validate:"required,min=1,max=200"`
	ChallengeType      models.ChallengeType `json:"challenge_type" validate:"challenge_type"`
	HelpCategory       string               `json:"help_category" validate:"max=50"`
	Description        string               `json:"description"`
	Instructions       *string              `json:"instructions"`
	Explanation        *string              `json:"explanation"`
	SuperBlock         string               `json:"super_block" validate:"max=100"`
	Block              string               `json:"block" validate:"max=100"`
	BlockName          string               `json:"block_name" validate:"max=200"`
	Slug               string               `json:"slug" validate:"max=300"`
	TranslationPending bool                 `json:"translation_pending"`
	VideoID            *string              `json:"video_id"`
	VideoLocaleIDs     map[string]string    `json:"video_locale_ids"`
	BilibiliIDs        map[string]string    `json:"bilibili_ids"`
	Scene              interface{}          `json:"scene"`
	Tests              []models.Test        `json:"tests"`
	Questions          []models.Question    `json:"questions" validate:"dive"`
	Assignments        []string             `json:"assignments" validate:"dive,required"`
}

type MountRequest struct {
	ChallengeID string               `json:"challenge_id" validate:"required"`
	Meta        models.ChallengeMeta `json:"meta"`
}

type SyncIdentityRequest struct {
	ChallengeID string               `json:"challenge_id" validate:"required"`
	Meta        models.ChallengeMeta `json:"meta"`
}

type SelectOptionRequest struct {
	QuestionIndex int `json:"question_index" validate:"gte=0"`
	OptionIndex   int `json:"option_index" validate:"gte=0"`
}

type ToggleAssignmentRequest struct {
	Checked bool `json:"checked"`
}

// ===== RESPONSES =====

// QuestionView is a question as shown to a learner: no solution, and
// feedback only once answers were submitted.
type QuestionView struct {
	Text     string        `json:"text"`
	Answers  []string      `json:"answers"`
	Selected *int          `json:"selected"`
	Verdict  *gate.Verdict `json:"verdict,omitempty"`
	Feedback *string       `json:"feedback,omitempty"`
}

type SessionResponse struct {
	ID                      string              `json:"id"`
	ChallengeID             string              `json:"challenge_id"`
	Title                   string              `json:"title"`
	Kind                    models.LessonKind   `json:"kind"`
	Questions               []QuestionView      `json:"questions"`
	ShowFeedback            bool                `json:"show_feedback"`
	AllCorrect              bool                `json:"all_correct"`
	Assignments             []string            `json:"assignments,omitempty"`
	AssignmentsCompleted    int                 `json:"assignments_completed"`
	AllAssignmentsCompleted bool                `json:"all_assignments_completed"`
	Completed               bool                `json:"completed"`
	Notifications           []gate.Notification `json:"notifications,omitempty"`
	MountedAt               time.Time           `json:"mounted_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows      int              `json:"total_rows"`
	ProcessedRows  int              `json:"processed_rows"`
	ChallengeIDs   []string         `json:"challenge_ids"`
	Errors         []ImportRowError `json:"errors"`
	ProcessingTime time.Duration    `json:"processing_time"`
}
