package sheets

import (
	"context"
	"sync"
)

// MockWriter is a mock implementation of Exporter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, data TabData) (string, error)
	WriteCalls     []WriteCall
	LastData       TabData
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error error
	Data  TabData
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the Exporter interface.
func (m *MockWriter) Write(ctx context.Context, data TabData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastData = data

	id := "mock-spreadsheet"
	var err error
	if m.WriteFunc != nil {
		id, err = m.WriteFunc(ctx, data)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Data:  data,
		Error: err,
	})

	return id, err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return an error on every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, TabData) (string, error) {
		return "", err
	}
}
