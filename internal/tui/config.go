package tui

import (
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/amendment-desk/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Input          io.Reader
	Output         io.Writer
	Logger         *slog.Logger
	Recorder       *Recorder
	Theme          themes.Theme
	Width          int
	Height         int
	DispatchWait   time.Duration
	ShowHelp       bool
	AltScreen      bool
	StartWithVoice bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		Width:        80,
		Height:       24,
		DispatchWait: 5 * time.Second,
		ShowHelp:     true,
		AltScreen:    true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithIO replaces the terminal with the given reader and writer. The
// alternate screen is disabled.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Config) {
		c.Input = in
		c.Output = out
		c.AltScreen = false
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHelp shows or hides the help footer.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}

// WithVoice starts listening as soon as the wizard opens.
func WithVoice(enabled bool) Option {
	return func(c *Config) {
		c.StartWithVoice = enabled
	}
}

// WithDispatchWait bounds how long a key press waits for the wizard.
func WithDispatchWait(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.DispatchWait = d
		}
	}
}

// WithRecorder captures every wizard frame for debugging.
func WithRecorder(r *Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}
