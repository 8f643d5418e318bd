package models

// Answer is one multiple-choice option.
type Answer struct {
	Answer   string `json:"answer" validate:"required"`
	Feedback string `json:"feedback,omitempty"`
}

type Question struct {
	Text     string   `json:"text" validate:"required"`
	Answers  []Answer `json:"answers" validate:"required,min=1,dive"`
	Solution int      `json:"solution" validate:"required,min=1"` // 1-indexed
}

// Test is an opaque test descriptor handed to the test runner.
type Test struct {
	Text       string `json:"text"`
	TestString string `json:"testString"`
}
