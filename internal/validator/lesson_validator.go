package validator

import (
	"fmt"

	"github.com/SAP-F-2025/lesson-service/internal/errors"
	"github.com/SAP-F-2025/lesson-service/internal/models"
)

// LessonValidator checks the lesson content rules struct tags cannot express.
type LessonValidator struct{}

func NewLessonValidator() *LessonValidator {
	return &LessonValidator{}
}

// ValidateQuestions reports every question whose solution does not point at
// one of its answers.
func (v *LessonValidator) ValidateQuestions(questions []models.Question) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		if len(q.Answers) == 0 {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				fmt.Sprintf("questions[%d].answers", i), "is required", "required", nil))
			continue
		}
		if q.Solution < 1 || q.Solution > len(q.Answers) {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				fmt.Sprintf("questions[%d].solution", i),
				fmt.Sprintf("must be between 1 and %d", len(q.Answers)),
				"solution_range", q.Solution))
		}
	}
	return errs
}

// ValidateOption checks a learner's choice against the challenge questions.
func (v *LessonValidator) ValidateOption(questions []models.Question, questionIndex, optionIndex int) ValidationErrors {
	if questionIndex < 0 || questionIndex >= len(questions) {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			"question_index", "must reference an existing question", "question_index", questionIndex)}
	}
	if optionIndex < 0 || optionIndex >= len(questions[questionIndex].Answers) {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			"option_index", "must reference an existing answer option", "option_index", optionIndex)}
	}
	return nil
}
