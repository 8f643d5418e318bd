package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator *validator.Validate
	lessonValidator *LessonValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		lessonValidator: NewLessonValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Lesson returns the lesson content validator
func (v *Validator) Lesson() *LessonValidator {
	return v.lessonValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("challenge_type", validateChallengeType)
	validate.RegisterValidation("lesson_kind", validateLessonKind)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateChallengeType(fl validator.FieldLevel) bool {
	validTypes := []models.ChallengeType{
		models.ChallengeTypeVideo,
		models.ChallengeTypeOdin,
		models.ChallengeTypeMultipleChoice,
	}

	value := models.ChallengeType(fl.Field().Int())
	for _, validType := range validTypes {
		if validType == value {
			return true
		}
	}
	return false
}

func validateLessonKind(fl validator.FieldLevel) bool {
	switch models.LessonKind(fl.Field().String()) {
	case models.LessonKindVideo, models.LessonKindOdin:
		return true
	}
	return false
}
