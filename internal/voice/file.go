package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileRecognizer tails a transcript file written by another process. Only
// lines appended after Start are delivered.
type FileRecognizer struct {
	logger *slog.Logger
	cancel context.CancelFunc
	path   string
	mu     sync.Mutex
}

// NewFileRecognizer creates a recognizer that tails path.
func NewFileRecognizer(path string, logger *slog.Logger) *FileRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileRecognizer{path: path, logger: logger}
}

// Supported reports whether the transcript file's directory exists.
func (r *FileRecognizer) Supported() bool {
	if r.path == "" {
		return false
	}
	info, err := os.Stat(filepath.Dir(r.path))
	return err == nil && info.IsDir()
}

// Start begins watching the file.
func (r *FileRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil, fmt.Errorf("file recognizer already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	// Watch the directory so the file may be created or replaced later.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("%w: failed to watch %s: %v", ErrPermissionDenied, r.path, err)
	}

	t := &tail{path: r.path, logger: r.logger}
	if info, statErr := os.Stat(r.path); statErr == nil {
		t.offset = info.Size()
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	events := make(chan Event)

	go func() {
		defer close(events)
		defer func() {
			_ = watcher.Close()
			cancel()
			r.mu.Lock()
			r.cancel = nil
			r.mu.Unlock()
		}()

		for {
			select {
			case <-runCtx.Done():
				return

			case fsEvent, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(fsEvent.Name) != filepath.Clean(r.path) {
					continue
				}
				if fsEvent.Has(fsnotify.Remove) || fsEvent.Has(fsnotify.Rename) {
					t.reset()
					continue
				}
				if !fsEvent.Has(fsnotify.Write) && !fsEvent.Has(fsnotify.Create) {
					continue
				}
				for _, line := range t.readLines() {
					ev, ok, end := decodeLine(line)
					if end {
						return
					}
					if !ok {
						continue
					}
					select {
					case events <- ev:
					case <-runCtx.Done():
						return
					}
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Error("Transcript watcher error", "path", r.path, "error", watchErr)
			}
		}
	}()

	return events, nil
}

// Stop ends the watch.
func (r *FileRecognizer) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// tail reads complete lines appended to a file since the last read.
type tail struct {
	logger  *slog.Logger
	path    string
	partial string
	offset  int64
}

func (t *tail) reset() {
	t.offset = 0
	t.partial = ""
}

func (t *tail) readLines() []string {
	f, err := os.Open(t.path)
	if err != nil {
		t.logger.Debug("transcript file not readable", "path", t.path, "error", err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil
	}
	// Truncated or replaced.
	if info.Size() < t.offset {
		t.reset()
	}

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		t.logger.Debug("transcript read failed", "path", t.path, "error", err)
		return nil
	}
	t.offset += int64(len(data))

	text := t.partial + string(data)
	lines := strings.Split(text, "\n")
	t.partial = lines[len(lines)-1]

	return lines[:len(lines)-1]
}
