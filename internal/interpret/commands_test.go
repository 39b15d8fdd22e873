package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		utterance string
		want      Command
	}{
		{"confirm", CommandConfirm},
		{"Approve.", CommandConfirm},
		{"looks good", CommandConfirm},
		{"go back", CommandBack},
		{"edit", CommandEdit},
		{"send it", CommandSubmit},
		{"Submit please", CommandSubmit},
		{"cancel", CommandCancel},
		{"buyer wants to cancel the inspection", CommandNone},
		{"", CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.utterance))
		})
	}
}

func TestFindCommand(t *testing.T) {
	tests := []struct {
		utterance string
		want      Command
	}{
		{"yes that looks good to me", CommandConfirm},
		{"ok go ahead and send it over", CommandSubmit},
		{"wait, I need to change something", CommandEdit},
		{"take me back", CommandBack},
		{"actually just close this", CommandCancel},
		{"sending now", CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, FindCommand(tt.utterance))
		})
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "submit", CommandSubmit.String())
	assert.Equal(t, "none", Command(99).String())
}
