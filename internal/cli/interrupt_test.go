package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestInterrupt(t *testing.T) {
	tests := []struct {
		name        string
		unsaved     bool
		wantMessage bool
	}{
		{name: "unsaved work", unsaved: true, wantMessage: true},
		{name: "nothing in progress", unsaved: false, wantMessage: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &syncBuffer{}
			handler := NewInterruptHandler(output)

			ctx := handler.HandleInterrupts(context.Background(), tt.unsaved)
			select {
			case <-ctx.Done():
				t.Fatal("context should not be canceled initially")
			default:
			}

			handler.Interrupt()

			<-ctx.Done()
			assert.True(t, handler.WasInterrupted())
			assert.Contains(t, output.String(), "Addendum wizard interrupted!")
			if tt.wantMessage {
				assert.Contains(t, output.String(), "Nothing was submitted.")
			} else {
				assert.NotContains(t, output.String(), "Nothing was submitted.")
			}
		})
	}
}

func TestMultipleInterrupts(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)
	_ = handler.HandleInterrupts(context.Background(), true)

	handler.Interrupt()
	handler.Interrupt()

	assert.Equal(t, 1, strings.Count(output.String(), "Addendum wizard interrupted!"))
}

func TestParentCancellationIsNotAnInterrupt(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output)

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, true)
	cancel()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
