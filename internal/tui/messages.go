package tui

import (
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/wizard"
)

// stateMsg carries a snapshot published by the wizard session.
type stateMsg struct {
	state wizard.State
}

// dispatchedMsg is the outcome of one dispatched action.
type dispatchedMsg struct {
	err    error
	state  wizard.State
	action wizard.ActionKind
}

// completedMsg reports a submitted addendum.
type completedMsg struct {
	addendum model.CompletedAddendum
}

// cancelledMsg reports that the wizard was closed without submitting.
type cancelledMsg struct{}

// sessionEndedMsg reports that the session loop stopped.
type sessionEndedMsg struct {
	err error
}

// contractLoadedMsg carries a reloaded contract for the history view.
type contractLoadedMsg struct {
	err      error
	contract *model.Contract
}
