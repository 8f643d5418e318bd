package services

import (
	"fmt"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

// ChallengeQuestionView is a question as a learner may see it before
// answering: no solution and no per-answer feedback.
type ChallengeQuestionView struct {
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

// ChallengeView is the learner-facing form of a catalogue entry.
type ChallengeView struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	ChallengeType  models.ChallengeType    `json:"challenge_type"`
	Kind           models.LessonKind       `json:"kind"`
	HelpCategory   string                  `json:"help_category"`
	Description    string                  `json:"description"`
	Instructions   *string                 `json:"instructions,omitempty"`
	SuperBlock     string                  `json:"super_block"`
	Block          string                  `json:"block"`
	BlockName      string                  `json:"block_name"`
	Slug           string                  `json:"slug"`
	VideoID        *string                 `json:"video_id,omitempty"`
	VideoLocaleIDs datatypes.JSON          `json:"video_locale_ids,omitempty"`
	BilibiliIDs    datatypes.JSON          `json:"bilibili_ids,omitempty"`
	Scene          datatypes.JSON          `json:"scene,omitempty"`
	Questions      []ChallengeQuestionView `json:"questions"`
	Assignments    []string                `json:"assignments"`
}

// NewChallengeView strips answer keys from a challenge.
func NewChallengeView(c *models.Challenge) (*ChallengeView, error) {
	questions, err := c.ParsedQuestions()
	if err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrChallengeInvalidData, err)
	}
	assignments, err := c.ParsedAssignments()
	if err != nil {
		return nil, fmt.Errorf("%w: assignments: %v", ErrChallengeInvalidData, err)
	}

	return &ChallengeView{
		ID:             c.ID,
		Title:          c.Title,
		ChallengeType:  c.ChallengeType,
		Kind:           c.ChallengeType.Kind(),
		HelpCategory:   c.HelpCategory,
		Description:    c.Description,
		Instructions:   c.Instructions,
		SuperBlock:     c.SuperBlock,
		Block:          c.Block,
		BlockName:      c.BlockName,
		Slug:           c.Slug,
		VideoID:        c.VideoID,
		VideoLocaleIDs: c.VideoLocaleIDs,
		BilibiliIDs:    c.BilibiliIDs,
		Scene:          c.Scene,
		Questions: lo.Map(questions, func(q models.Question, _ int) ChallengeQuestionView {
			return ChallengeQuestionView{
				Text:    q.Text,
				Answers: lo.Map(q.Answers, func(a models.Answer, _ int) string { return a.Answer }),
			}
		}),
		Assignments: nonNil(assignments),
	}, nil
}
