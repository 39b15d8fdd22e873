package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSilenceWindow is how long the channel waits after the last
// transcript before it stops listening.
const DefaultSilenceWindow = 3 * time.Second

const transcriptBuffer = 64

// Transcript is a recognized speech segment. Session identifies the
// listening session that produced it; see Channel.Session.
type Transcript struct {
	At      time.Time
	Text    string
	Session uint64
	Final   bool
}

// Channel owns the only handle to a recognizer. At most one listening
// session is active at a time.
type Channel struct {
	err         error
	recognizer  Recognizer
	logger      *slog.Logger
	transcripts chan Transcript
	cancel      context.CancelFunc
	silence     *time.Timer
	now         func() time.Time
	window      time.Duration
	session     uint64
	mu          sync.Mutex
	listening   bool
	starting    bool
	heardSpeech bool
}

// Option configures a Channel.
type Option func(*Channel)

// WithSilenceWindow sets the auto-stop window.
func WithSilenceWindow(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithLogger sets the channel's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp transcripts.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

// NewChannel wraps a recognizer. A nil recognizer behaves as Unsupported.
func NewChannel(r Recognizer, opts ...Option) *Channel {
	if r == nil {
		r = Unsupported{}
	}

	c := &Channel{
		recognizer:  r,
		logger:      slog.Default(),
		transcripts: make(chan Transcript, transcriptBuffer),
		now:         time.Now,
		window:      DefaultSilenceWindow,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Supported reports whether the runtime can recognize speech at all.
func (c *Channel) Supported() bool {
	return c.recognizer.Supported()
}

// Listening reports whether a session is active.
func (c *Channel) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Transcripts returns the stream of recognized segments in spoken order. The
// stream spans sessions and is never closed.
func (c *Channel) Transcripts() <-chan Transcript {
	return c.transcripts
}

// Err returns the current voice error, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearError empties the error slot.
func (c *Channel) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

// Session returns the id of the latest listening session, including one
// still starting. Ids increase with every Start; zero means none yet.
func (c *Channel) Session() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Start begins a listening session. It does nothing when a session is
// already active or starting. Failures land in the error slot instead of
// being returned. The lock is not held while the recognizer connects, so
// Stop can abandon a slow start.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	if c.listening || c.starting {
		c.mu.Unlock()
		return
	}
	if !c.recognizer.Supported() {
		c.err = ErrUnsupported
		c.mu.Unlock()
		return
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	c.session++
	session := c.session
	c.starting = true
	c.cancel = cancel
	c.mu.Unlock()

	events, err := c.recognizer.Start(sessionCtx)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		cancel()
		c.cancel = nil
		c.err = err
		c.mu.Unlock()
		c.logger.Debug("voice session failed to start", "session", session, "error", err)
		return
	}
	if sessionCtx.Err() != nil {
		// Stopped while connecting.
		c.cancel = nil
		c.mu.Unlock()
		if stopErr := c.recognizer.Stop(); stopErr != nil {
			c.logger.Debug("recognizer stop failed", "error", stopErr)
		}
		return
	}

	c.listening = true
	c.heardSpeech = false
	c.err = nil
	c.mu.Unlock()

	go c.pump(sessionCtx, session, events)

	c.logger.Debug("voice session started", "session", session)
}

// Stop ends the active session and its silence timer.
func (c *Channel) Stop() {
	c.mu.Lock()
	stopped := c.endLocked()
	c.mu.Unlock()

	if !stopped {
		return
	}

	if err := c.recognizer.Stop(); err != nil {
		c.logger.Debug("recognizer stop failed", "error", err)
	}
}

// endLocked tears down session state. It reports whether a session was
// active. A session still starting is cancelled and cleaned up by Start.
func (c *Channel) endLocked() bool {
	if c.starting {
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		return false
	}
	if !c.listening {
		return false
	}

	c.listening = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.silence != nil {
		c.silence.Stop()
		c.silence = nil
	}

	return true
}

func (c *Channel) pump(ctx context.Context, session uint64, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				c.sessionEnded(session)
				return
			}

			if ev.Err != nil {
				c.fail(session, ev.Err)
				continue
			}

			if ev.Text == "" {
				continue
			}

			c.heard(session)

			select {
			case c.transcripts <- Transcript{Text: ev.Text, Final: ev.Final, At: c.now(), Session: session}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// heard marks speech and re-arms the silence timer.
func (c *Channel) heard(session uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != session || !c.listening {
		return
	}

	c.heardSpeech = true
	if c.silence == nil {
		c.silence = time.AfterFunc(c.window, func() { c.silenceElapsed(session) })
		return
	}
	c.silence.Reset(c.window)
}

func (c *Channel) silenceElapsed(session uint64) {
	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return
	}
	stopped := c.endLocked()
	c.mu.Unlock()

	if !stopped {
		return
	}

	c.logger.Debug("voice session stopped after silence", "session", session, "window", c.window)
	if err := c.recognizer.Stop(); err != nil {
		c.logger.Debug("recognizer stop failed", "error", err)
	}
}

func (c *Channel) fail(session uint64, err error) {
	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return
	}
	c.err = err
	stopped := c.endLocked()
	c.mu.Unlock()

	c.logger.Debug("voice session error", "session", session, "error", err)
	if stopped {
		if stopErr := c.recognizer.Stop(); stopErr != nil {
			c.logger.Debug("recognizer stop failed", "error", stopErr)
		}
	}
}

// sessionEnded handles the recognizer closing its stream on its own.
func (c *Channel) sessionEnded(session uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != session || !c.listening {
		return
	}

	if !c.heardSpeech && c.err == nil {
		c.err = ErrNoSpeech
	}
	c.endLocked()
}
