package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads lines in the background so callers can wait for input
// alongside other events. A line is only consumed when a caller receives it.
type LineReader struct {
	err     error
	scanner *bufio.Scanner
	lines   chan string
	once    sync.Once
	mu      sync.Mutex
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		scanner: bufio.NewScanner(r),
		lines:   make(chan string),
	}
}

// Lines returns the channel of trimmed input lines. It is closed at end of
// input; Err reports why.
func (r *LineReader) Lines() <-chan string {
	r.once.Do(func() {
		go r.pump()
	})
	return r.lines
}

func (r *LineReader) pump() {
	defer close(r.lines)
	for r.scanner.Scan() {
		r.lines <- strings.TrimSpace(r.scanner.Text())
	}
	if err := r.scanner.Err(); err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}
}

// Err returns the read error that ended input, or nil at a clean EOF.
func (r *LineReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ReadLine waits for the next line, respecting context cancellation.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case line, ok := <-r.Lines():
		if !ok {
			if err := r.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return line, nil
	}
}
