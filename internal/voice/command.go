package voice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"sync"
)

// CommandRecognizer runs an external speech-to-text program and reads one
// transcript per stdout line. Lines may be plain text (final transcripts) or
// JSON frames.
type CommandRecognizer struct {
	logger *slog.Logger
	cancel context.CancelFunc
	path   string
	args   []string
	mu     sync.Mutex
}

// NewCommandRecognizer creates a recognizer that runs path with args.
func NewCommandRecognizer(path string, args []string, logger *slog.Logger) *CommandRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRecognizer{path: path, args: args, logger: logger}
}

// Supported reports whether the program can be found.
func (r *CommandRecognizer) Supported() bool {
	if r.path == "" {
		return false
	}
	_, err := exec.LookPath(r.path)
	return err == nil
}

// Start launches the program.
func (r *CommandRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil, fmt.Errorf("command recognizer already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, r.path, r.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open recognizer output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	r.cancel = cancel
	events := make(chan Event)

	go func() {
		defer close(events)
		defer r.finished(cancel)

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			ev, ok, end := decodeLine(scanner.Text())
			if end {
				cancel()
				_ = cmd.Wait()
				return
			}
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-runCtx.Done():
				_ = cmd.Wait()
				return
			}
		}

		waitErr := cmd.Wait()
		if waitErr != nil && runCtx.Err() == nil {
			r.logger.Debug("recognizer command exited", "path", r.path, "error", waitErr)
			select {
			case events <- Event{Err: fmt.Errorf("%w: %v", ErrAborted, waitErr)}:
			case <-runCtx.Done():
			}
		}
	}()

	return events, nil
}

func (r *CommandRecognizer) finished(cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	r.cancel = nil
	r.mu.Unlock()
}

// Stop kills the program.
func (r *CommandRecognizer) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}
