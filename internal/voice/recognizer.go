// Package voice wraps a speech recognizer in a listening channel that emits
// ordered transcripts, auto-stops after silence, and keeps a single error slot.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Recognition errors surfaced through Channel.Err.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoSpeech         = errors.New("no speech detected")
	ErrUnsupported      = errors.New("speech recognition not supported")
	ErrNetwork          = errors.New("speech service unreachable")
	ErrAborted          = errors.New("speech recognition aborted")
)

// Event is one message from a recognizer session. Either Err is set or Text
// carries an interim or final transcript segment.
type Event struct {
	Err   error
	Text  string
	Final bool
}

// Recognizer is a speech-to-text engine. Start begins a session whose events
// arrive on the returned channel; the recognizer closes the channel when the
// session ends for any reason.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context) (<-chan Event, error)
	Stop() error
}

// Unsupported is a recognizer for runtimes without speech input.
type Unsupported struct{}

// Supported always returns false.
func (Unsupported) Supported() bool { return false }

// Start always fails with ErrUnsupported.
func (Unsupported) Start(context.Context) (<-chan Event, error) { return nil, ErrUnsupported }

// Stop does nothing.
func (Unsupported) Stop() error { return nil }

// frame is the JSON shape shared by the streaming service and line-oriented
// recognizers.
type frame struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Final   bool   `json:"final"`
}

const (
	frameTranscript = "transcript"
	frameError      = "error"
	frameEnd        = "end"
	frameStart      = "start"
	frameStop       = "stop"
)

// event converts a frame. ok is false for frames that carry nothing, and end
// is set when the service signals the session is over.
func (f frame) event() (ev Event, ok bool, end bool) {
	switch f.Type {
	case frameEnd:
		return Event{}, false, true
	case frameError:
		return Event{Err: errorForCode(f.Code, f.Message)}, true, false
	case frameTranscript, "":
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return Event{}, false, false
		}
		return Event{Text: text, Final: f.Final}, true, false
	default:
		return Event{}, false, false
	}
}

func errorForCode(code, message string) error {
	var base error
	switch code {
	case "not-allowed", "permission-denied", "service-not-allowed":
		base = ErrPermissionDenied
	case "no-speech":
		base = ErrNoSpeech
	case "network":
		base = ErrNetwork
	case "aborted":
		base = ErrAborted
	case "unsupported", "language-not-supported":
		base = ErrUnsupported
	default:
		return fmt.Errorf("speech service error %q: %s", code, message)
	}

	if message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, message)
}

// decodeLine reads one line of recognizer output. JSON objects are decoded as
// frames; anything else is a final transcript.
func decodeLine(line string) (ev Event, ok bool, end bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false, false
	}

	if strings.HasPrefix(line, "{") {
		var f frame
		if err := json.Unmarshal([]byte(line), &f); err == nil {
			return f.event()
		}
	}

	return Event{Text: line, Final: true}, true, false
}
