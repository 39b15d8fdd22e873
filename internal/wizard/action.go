package wizard

import "github.com/Veraticus/amendment-desk/internal/model"

// ActionKind is an explicit trigger from the presentation layer.
type ActionKind int

const (
	ActionSelectType ActionKind = iota + 1
	ActionText
	ActionCapture
	ActionBack
	ActionConfirm
	ActionEdit
	ActionSubmit
	ActionRetry
	ActionStartVoice
	ActionStopVoice
	ActionClearError
)

func (k ActionKind) String() string {
	switch k {
	case ActionSelectType:
		return "select_type"
	case ActionText:
		return "text"
	case ActionCapture:
		return "capture"
	case ActionBack:
		return "back"
	case ActionConfirm:
		return "confirm"
	case ActionEdit:
		return "edit"
	case ActionSubmit:
		return "submit"
	case ActionRetry:
		return "retry"
	case ActionStartVoice:
		return "start_voice"
	case ActionStopVoice:
		return "stop_voice"
	case ActionClearError:
		return "clear_error"
	default:
		return "unknown"
	}
}

// Action is one explicit trigger. Only the fields its Kind needs are set.
type Action struct {
	Value model.FieldValue
	Type  model.AddendumType
	Text  string
	Kind  ActionKind
}

// SelectType picks an addendum type directly.
func SelectType(t model.AddendumType) Action {
	return Action{Kind: ActionSelectType, Type: t}
}

// Text submits typed input, interpreted the same way as a spoken utterance.
func Text(s string) Action {
	return Action{Kind: ActionText, Text: s}
}

// Capture stores an already-typed value for the current field.
func Capture(v model.FieldValue) Action {
	return Action{Kind: ActionCapture, Value: v}
}

// Back, Confirm, Edit, Submit, and Retry mirror the wizard buttons.
func Back() Action    { return Action{Kind: ActionBack} }
func Confirm() Action { return Action{Kind: ActionConfirm} }
func Edit() Action    { return Action{Kind: ActionEdit} }
func Submit() Action  { return Action{Kind: ActionSubmit} }
func Retry() Action   { return Action{Kind: ActionRetry} }

// StartVoice and StopVoice control the voice channel.
func StartVoice() Action { return Action{Kind: ActionStartVoice} }
func StopVoice() Action  { return Action{Kind: ActionStopVoice} }

// ClearError dismisses the processing error.
func ClearError() Action { return Action{Kind: ActionClearError} }
