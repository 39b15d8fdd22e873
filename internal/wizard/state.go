// Package wizard implements the addendum creation wizard: a pure transition
// core (Machine) and a session that serializes user actions, voice
// transcripts, and asynchronous results through one consumer goroutine.
package wizard

import "github.com/Veraticus/amendment-desk/internal/model"

// Step is a wizard screen.
type Step string

const (
	StepTypeSelection Step = "type_selection"
	StepDetails       Step = "details"
	StepReview        Step = "review"
	StepConfirm       Step = "confirm"
)

// Valid reports whether s is one of the four wizard steps.
func (s Step) Valid() bool {
	switch s {
	case StepTypeSelection, StepDetails, StepReview, StepConfirm:
		return true
	}
	return false
}

func (s Step) String() string {
	return string(s)
}

// State is a snapshot of one in-progress addendum.
type State struct {
	Details          map[string]model.FieldValue
	Step             Step
	SelectedType     model.AddendumType
	GeneratedContent string
	Error            string
	// Transcript is the most recent voice segment, for display only.
	Transcript   string
	FieldIndex   int
	IsProcessing bool
}

// EmptyState is the state of a freshly opened wizard.
func EmptyState() State {
	return State{
		Step:    StepTypeSelection,
		Details: map[string]model.FieldValue{},
	}
}

// Clone returns a copy that shares no maps with s.
func (s State) Clone() State {
	out := s
	out.Details = model.CloneDetails(s.Details)
	return out
}

// HasSelectedType reports whether an addendum type is chosen.
func (s State) HasSelectedType() bool {
	return s.SelectedType != ""
}
