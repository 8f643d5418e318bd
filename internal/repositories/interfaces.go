package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("lesson session not found")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// ===== SHARED FILTER STRUCTS =====

type ChallengeFilters struct {
	ChallengeType *models.ChallengeType `json:"challenge_type"`
	SuperBlock    string                `json:"super_block"`
	Block         string                `json:"block"`
	Search        string                `json:"search"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
	SortBy        string                `json:"sort_by"`    // "created_at", "title"
	SortOrder     string                `json:"sort_order"` // "asc", "desc"
}

// ChallengeRepository stores the lesson catalogue
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	Upsert(ctx context.Context, challenges []*models.Challenge) error
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	GetBySlug(ctx context.Context, slug string) (*models.Challenge, error)
	Update(ctx context.Context, challenge *models.Challenge) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters ChallengeFilters) ([]*models.Challenge, int64, error)
}

// SessionStore keeps the answer state of mounted lesson pages. Sessions are
// transient and may expire.
type SessionStore interface {
	Save(ctx context.Context, session *models.LessonSession) error
	Get(ctx context.Context, id string) (*models.LessonSession, error)
	Delete(ctx context.Context, id string) error
}

// IsNotFoundError reports whether err means the record does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrSessionNotFound)
}

// IsDuplicateError reports whether err is a unique constraint violation
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateKey)
}
