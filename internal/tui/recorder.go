package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Recorder writes every rendered wizard frame to a directory, with a log of
// the messages that produced them. It is a debugging aid for layouts that
// only break in a real terminal.
type Recorder struct {
	logFile  *os.File
	dir      string
	mu       sync.Mutex
	frameNum int
}

// NewRecorder creates a recorder under dir. An empty dir records into a new
// temporary directory.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("amend-tui-%d", time.Now().Unix()))
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(filepath.Clean(dir), "frames.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create recording log: %w", err)
	}

	return &Recorder{dir: dir, logFile: logFile}, nil
}

// Dir returns the recording directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// Frames returns the number of frames captured so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameNum
}

// Record captures the wizard after it handled msg.
func (r *Recorder) Record(m WizardModel, msg tea.Msg) {
	if r == nil {
		return
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.frameNum++
	r.logf("frame %04d at %s: %T step=%s field=%d processing=%t error=%q",
		r.frameNum,
		time.Now().Format("15:04:05.000"),
		msg,
		m.state.Step,
		m.state.FieldIndex,
		m.state.IsProcessing,
		m.state.Error,
	)

	path := filepath.Join(r.dir, fmt.Sprintf("frame-%04d.txt", r.frameNum))
	if err := os.WriteFile(path, []byte(m.View()), 0o600); err != nil {
		r.logf("failed to save frame: %v", err)
	}
}

func (r *Recorder) logf(format string, args ...any) {
	if r.logFile == nil {
		return
	}
	_, _ = fmt.Fprintf(r.logFile, format+"\n", args...)
}

// Close flushes the log.
func (r *Recorder) Close() error {
	if r == nil || r.logFile == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logf("recording complete, %d frames", r.frameNum)
	return r.logFile.Close()
}
