package errors

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrors_Error(t *testing.T) {
	cases := []struct {
		name string
		errs ValidationErrors
		want string
	}{
		{name: "empty", errs: nil, want: "validation failed"},
		{
			name: "single",
			errs: ValidationErrors{*NewValidationError("title", "is required", nil)},
			want: "validation failed: title is required",
		},
		{
			name: "multiple",
			errs: ValidationErrors{
				*NewValidationError("title", "is required", nil),
				*NewValidationErrorWithRule("questions[0].solution", "must be between 1 and 2", "solution_range", 3),
			},
			want: "validation failed: 2 field errors",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.errs.Error())
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationErrorWithRule("option_index", "must reference an existing answer option", "option_index", 7)

	assert.Equal(t, "validation error on field 'option_index': must reference an existing answer option", err.Error())
	assert.Equal(t, "option_index", err.Rule)
	assert.Equal(t, 7, err.Value)
}

type lessonAnswer struct {
	Answer string `json:"answer" validate:"required"`
}

type lessonQuestion struct {
	Text    string         `json:"text" validate:"required"`
	Answers []lessonAnswer `json:"answers" validate:"min=2,dive"`
}

type lessonRequest struct {
	Title     string           `json:"title" validate:"required,max=10"`
	Questions []lessonQuestion `json:"questions" validate:"dive"`
}

func newTagValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

func TestToValidationErrors_NestedPaths(t *testing.T) {
	err := newTagValidator().Struct(lessonRequest{
		Title: "Introduction to HTML",
		Questions: []lessonQuestion{
			{Text: "What does HTML stand for?", Answers: []lessonAnswer{{Answer: "A"}, {Answer: ""}}},
			{Text: "", Answers: []lessonAnswer{{Answer: "A"}}},
		},
	})
	require.Error(t, err)

	errs := ToValidationErrors(fmt.Errorf("create challenge: %w", err))
	assert.Equal(t, []string{
		"title",
		"questions[0].answers[1].answer",
		"questions[1].text",
		"questions[1].answers",
	}, errs.Fields())

	assert.Equal(t, "must be at most 10", errs[0].Message)
	assert.Equal(t, "is required", errs[1].Message)
	assert.Equal(t, "must be at least 2", errs[3].Message)
	assert.Equal(t, "min", errs[3].Rule)
}

func TestToValidationErrors_IgnoresForeignErrors(t *testing.T) {
	assert.Empty(t, ToValidationErrors(NewValidationError("x", "y", nil)))
	assert.Empty(t, ToValidationErrors(nil))
}
