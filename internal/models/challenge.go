package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChallengeType mirrors the platform's numeric challenge type codes.
type ChallengeType int

const (
	ChallengeTypeVideo          ChallengeType = 11
	ChallengeTypeOdin           ChallengeType = 15
	ChallengeTypeMultipleChoice ChallengeType = 19
)

// LessonKind selects which page shell hosts the challenge.
type LessonKind string

const (
	LessonKindVideo LessonKind = "video"
	LessonKindOdin  LessonKind = "odin"
)

// Kind returns the page shell for the challenge type. Only the odin shell
// takes assignments into account when deciding completion.
func (t ChallengeType) Kind() LessonKind {
	if t == ChallengeTypeOdin {
		return LessonKindOdin
	}
	return LessonKindVideo
}

type Challenge struct {
	ID                 string        `json:"id" gorm:"primaryKey;size:64"`
	Title              string        `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	ChallengeType      ChallengeType `json:"challenge_type" gorm:"not null;index" validate:"challenge_type"`
	HelpCategory       string        `json:"help_category" gorm:"size:50"`
	Description        string        `json:"description" gorm:"type:text"`
	Instructions       *string       `json:"instructions,omitempty" gorm:"type:text"`
	Explanation        *string       `json:"explanation,omitempty" gorm:"type:text"`
	SuperBlock         string        `json:"super_block" gorm:"size:100;index"`
	Block              string        `json:"block" gorm:"size:100;index"`
	BlockName          string        `json:"block_name" gorm:"size:200"`
	Slug               string        `json:"slug" gorm:"size:300;uniqueIndex"`
	TranslationPending bool          `json:"translation_pending" gorm:"default:false"`

	// Media
	VideoID        *string        `json:"video_id,omitempty" gorm:"size:50"`
	VideoLocaleIDs datatypes.JSON `json:"video_locale_ids,omitempty" gorm:"type:jsonb"` // {"espanol": "...", ...}
	BilibiliIDs    datatypes.JSON `json:"bilibili_ids,omitempty" gorm:"type:jsonb"`     // {"aid": ..., "bvid": ..., "cid": ...}
	Scene          datatypes.JSON `json:"scene,omitempty" gorm:"type:jsonb"`

	// Content
	Tests       datatypes.JSON `json:"tests" gorm:"type:jsonb"`       // []Test, forwarded untouched
	Questions   datatypes.JSON `json:"questions" gorm:"type:jsonb"`   // []Question
	Assignments datatypes.JSON `json:"assignments" gorm:"type:jsonb"` // []string

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// ParsedQuestions decodes the questions column.
func (c *Challenge) ParsedQuestions() ([]Question, error) {
	var questions []Question
	if len(c.Questions) == 0 {
		return questions, nil
	}
	if err := json.Unmarshal(c.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ParsedAssignments decodes the assignments column.
func (c *Challenge) ParsedAssignments() ([]string, error) {
	var assignments []string
	if len(c.Assignments) == 0 {
		return assignments, nil
	}
	if err := json.Unmarshal(c.Assignments, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// ChallengeMeta is the host page's view of the current challenge.
type ChallengeMeta struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	ChallengeType     ChallengeType `json:"challenge_type"`
	HelpCategory      string        `json:"help_category"`
	NextChallengePath string        `json:"next_challenge_path,omitempty"`
	PrevChallengePath string        `json:"prev_challenge_path,omitempty"`
}

// MergeChallenge overlays the challenge's title, type and help category.
func (m ChallengeMeta) MergeChallenge(c *Challenge) ChallengeMeta {
	m.Title = c.Title
	m.ChallengeType = c.ChallengeType
	m.HelpCategory = c.HelpCategory
	return m
}
