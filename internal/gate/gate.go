// Package gate tracks multiple-choice answers for a single lesson page and
// decides when the lesson counts as complete.
//
// State values are immutable: every command returns a new State and leaves
// the receiver untouched, so a caller holding an older State keeps seeing
// the answers as they stood when it was produced.
package gate

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Choice is a zero-indexed answer option, or NoChoice.
type Choice int

// NoChoice marks a question that has no option chosen.
const NoChoice Choice = -1

// Notification is a signal emitted to the host page by a command.
type Notification string

const (
	// NotifyCompletion asks the host to open the completion dialog.
	NotifyCompletion Notification = "completion"
)

// Verdict is the per-question result shown once feedback is visible.
type Verdict struct {
	Answered bool `json:"answered"`
	Correct  bool `json:"correct"`
}

// State is the answer and assignment progress of one mounted lesson page.
// The zero value has no questions; use New.
type State struct {
	solutions        []Choice
	selected         []Choice
	submitted        []Choice
	showFeedback     bool
	trackAssignments bool
	totalAssignments int
	completed        int
	allCompleted     bool
}

// New builds a fresh state. solutions holds the 1-indexed correct option of
// each question. When trackAssignments is false the assignment count never
// takes part in the completion check.
func New(solutions []int, totalAssignments int, trackAssignments bool) State {
	n := len(solutions)
	return State{
		solutions:        lo.Map(solutions, func(s int, _ int) Choice { return Choice(s - 1) }),
		selected:         noChoices(n),
		submitted:        noChoices(n),
		trackAssignments: trackAssignments,
		totalAssignments: totalAssignments,
		allCompleted:     totalAssignments == 0,
	}
}

func noChoices(n int) []Choice {
	return lo.Times(n, func(int) Choice { return NoChoice })
}

// SelectOption records optionIndex as the current choice for questionIndex.
// An out-of-range questionIndex is a programming error and panics.
func (s State) SelectOption(questionIndex int, optionIndex Choice) State {
	if questionIndex < 0 || questionIndex >= len(s.selected) {
		panic(fmt.Sprintf("gate: question index %d out of range [0,%d)", questionIndex, len(s.selected)))
	}
	next := s.clone()
	next.selected[questionIndex] = optionIndex
	return next
}

// Submit snapshots the selected options, turns feedback on and evaluates the
// completion gate. It returns NotifyCompletion exactly once when every
// submitted answer is correct and, if tracked, every assignment is done.
func (s State) Submit() (State, []Notification) {
	next := s.clone()
	next.submitted = slices.Clone(s.selected)
	next.showFeedback = true

	if next.AllCorrect() && (!next.trackAssignments || next.allCompleted) {
		return next, []Notification{NotifyCompletion}
	}
	return next, nil
}

// ToggleAssignment counts a checked or unchecked assignment box. The count
// never drops below zero.
func (s State) ToggleAssignment(checked bool, totalAssignments int) State {
	next := s.clone()
	if checked {
		next.completed++
	} else if next.completed > 0 {
		next.completed--
	}
	next.totalAssignments = totalAssignments
	next.allCompleted = next.completed == totalAssignments
	return next
}

// AllCorrect compares the submitted answers, never the live selection, with
// the solutions.
func (s State) AllCorrect() bool {
	return slices.Equal(s.submitted, s.solutions)
}

// AllAssignmentsComplete is true vacuously when there are no assignments.
func (s State) AllAssignmentsComplete() bool { return s.allCompleted }

// AssignmentsCompleted is the number of checked assignment boxes.
func (s State) AssignmentsCompleted() int { return s.completed }

// TotalAssignments is the assignment count the state was last sized for.
func (s State) TotalAssignments() int { return s.totalAssignments }

// TracksAssignments reports whether assignments gate completion.
func (s State) TracksAssignments() bool { return s.trackAssignments }

// ShowFeedback turns true on the first Submit and stays true.
func (s State) ShowFeedback() bool { return s.showFeedback }

// QuestionCount is the number of questions the state was built for.
func (s State) QuestionCount() int { return len(s.selected) }

// Selected returns a copy of the live selection.
func (s State) Selected() []Choice { return slices.Clone(s.selected) }

// Submitted returns a copy of the selection captured by the last Submit.
func (s State) Submitted() []Choice { return slices.Clone(s.submitted) }

// Feedback returns one verdict per question, or nil while feedback is hidden.
func (s State) Feedback() []Verdict {
	if !s.showFeedback {
		return nil
	}
	return lo.Map(s.submitted, func(c Choice, i int) Verdict {
		return Verdict{Answered: c != NoChoice, Correct: c == s.solutions[i]}
	})
}

func (s State) clone() State {
	next := s
	next.solutions = slices.Clone(s.solutions)
	next.selected = slices.Clone(s.selected)
	next.submitted = slices.Clone(s.submitted)
	return next
}

// snapshot is the persisted form of State.
type snapshot struct {
	Solutions        []Choice `json:"solutions"`
	Selected         []Choice `json:"selected"`
	Submitted        []Choice `json:"submitted"`
	ShowFeedback     bool     `json:"show_feedback"`
	TrackAssignments bool     `json:"track_assignments"`
	TotalAssignments int      `json:"total_assignments"`
	Completed        int      `json:"assignments_completed"`
	AllCompleted     bool     `json:"all_assignments_completed"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Solutions:        s.solutions,
		Selected:         s.selected,
		Submitted:        s.submitted,
		ShowFeedback:     s.showFeedback,
		TrackAssignments: s.trackAssignments,
		TotalAssignments: s.totalAssignments,
		Completed:        s.completed,
		AllCompleted:     s.allCompleted,
	})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if len(snap.Selected) != len(snap.Solutions) || len(snap.Submitted) != len(snap.Solutions) {
		return fmt.Errorf("gate: inconsistent state lengths (solutions=%d selected=%d submitted=%d)",
			len(snap.Solutions), len(snap.Selected), len(snap.Submitted))
	}
	*s = State{
		solutions:        snap.Solutions,
		selected:         snap.Selected,
		submitted:        snap.Submitted,
		showFeedback:     snap.ShowFeedback,
		trackAssignments: snap.TrackAssignments,
		totalAssignments: snap.TotalAssignments,
		completed:        snap.Completed,
		allCompleted:     snap.AllCompleted,
	}
	return nil
}
