package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/generate"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/voice"
)

const (
	// DefaultGenerationTimeout bounds one content generation.
	DefaultGenerationTimeout = 60 * time.Second
	// DefaultSubmissionTimeout bounds one submission.
	DefaultSubmissionTimeout = 30 * time.Second

	inboxSize = 32
)

var (
	// ErrSessionStopped is returned by Dispatch once Run has returned.
	ErrSessionStopped = errors.New("wizard session stopped")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("wizard session already running")
)

// Submitter delivers a completed addendum to the persistence collaborator.
type Submitter interface {
	Submit(ctx context.Context, addendum model.CompletedAddendum) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, addendum model.CompletedAddendum) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, addendum model.CompletedAddendum) error {
	return f(ctx, addendum)
}

// Recorder receives wizard telemetry. All methods must be cheap.
type Recorder interface {
	StepChanged(ctx context.Context, from, to Step)
	GenerationFinished(ctx context.Context, addendumType model.AddendumType, elapsed time.Duration, err error)
	SubmissionFinished(ctx context.Context, addendumType model.AddendumType, elapsed time.Duration, err error)
	Completed(ctx context.Context, addendumType model.AddendumType)
	Closed(ctx context.Context, step Step)
	TranscriptDropped(ctx context.Context)
}

type nopRecorder struct{}

func (nopRecorder) StepChanged(context.Context, Step, Step) {}
func (nopRecorder) GenerationFinished(context.Context, model.AddendumType, time.Duration, error) {
}
func (nopRecorder) SubmissionFinished(context.Context, model.AddendumType, time.Duration, error) {
}
func (nopRecorder) Completed(context.Context, model.AddendumType) {}
func (nopRecorder) Closed(context.Context, Step)                  {}
func (nopRecorder) TranscriptDropped(context.Context)             {}

type messageKind int

const (
	msgAction messageKind = iota
	msgClose
	msgGenerated
	msgSubmitted
)

type message struct {
	err      error
	reply    chan State
	content  string
	action   Action
	elapsed  time.Duration
	token    uint64
	addendum model.AddendumType
	kind     messageKind
}

// Session owns one Machine. Run must be started before Dispatch; it is the
// only goroutine that touches the machine while running.
type Session struct {
	machine           *Machine
	generator         generate.Generator
	submitter         Submitter
	voice             *voice.Channel
	recorder          Recorder
	logger            *slog.Logger
	onComplete        func(model.CompletedAddendum)
	onCancel          func()
	now               func() time.Time
	inbox             chan message
	updates           chan State
	started           chan struct{}
	stopped           chan struct{}
	runCtx            context.Context
	unitCancel        context.CancelFunc
	snapshot          State
	generationTimeout time.Duration
	submissionTimeout time.Duration
	mu                sync.Mutex
	snapMu            sync.RWMutex
	runOnce           sync.Once

	// staleVoice is the last voice session live at a reset. Its buffered
	// transcripts, and those of older sessions, are dropped.
	staleVoice uint64
}

// Option configures a Session.
type Option func(*Session)

// WithGenerator sets the content generator. The default is the template.
func WithGenerator(g generate.Generator) Option {
	return func(s *Session) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithSubmitter sets the submission collaborator. Without one, submission
// succeeds immediately.
func WithSubmitter(sub Submitter) Option {
	return func(s *Session) {
		s.submitter = sub
	}
}

// WithVoice attaches a voice channel.
func WithVoice(ch *voice.Channel) Option {
	return func(s *Session) {
		s.voice = ch
	}
}

// WithCompletion sets the callback that receives each submitted addendum.
func WithCompletion(fn func(model.CompletedAddendum)) Option {
	return func(s *Session) {
		s.onComplete = fn
	}
}

// WithCancel sets the callback invoked when the wizard is closed.
func WithCancel(fn func()) Option {
	return func(s *Session) {
		s.onCancel = fn
	}
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = common.LoggerOrDefault(logger)
	}
}

// WithClock sets the time source used as the reference date for spoken dates.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerationTimeout bounds each generation.
func WithGenerationTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.generationTimeout = d
		}
	}
}

// WithSubmissionTimeout bounds each submission.
func WithSubmissionTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.submissionTimeout = d
		}
	}
}

// NewSession creates a wizard session over the catalog.
func NewSession(c *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		machine:           NewMachine(c),
		generator:         generate.TemplateGenerator{},
		recorder:          nopRecorder{},
		logger:            slog.Default(),
		now:               time.Now,
		inbox:             make(chan message, inboxSize),
		updates:           make(chan State, 1),
		started:           make(chan struct{}),
		stopped:           make(chan struct{}),
		runCtx:            context.Background(),
		generationTimeout: DefaultGenerationTimeout,
		submissionTimeout: DefaultSubmissionTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.snapshot = s.machine.State()
	return s
}

// Run consumes the inbox and voice transcripts until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	err := ErrAlreadyRunning
	s.runOnce.Do(func() {
		err = s.run(ctx)
	})
	return err
}

func (s *Session) run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	close(s.started)
	defer close(s.stopped)

	var transcripts <-chan voice.Transcript
	if s.voice != nil {
		transcripts = s.voice.Transcripts()
	}

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.unitCancel != nil {
				s.unitCancel()
				s.unitCancel = nil
			}
			s.mu.Unlock()
			if s.voice != nil {
				s.voice.Stop()
			}
			return ctx.Err()

		case msg := <-s.inbox:
			s.handle(ctx, msg)

		case tr := <-transcripts:
			s.handleTranscript(ctx, tr)
		}
	}
}

// State returns the latest snapshot.
func (s *Session) State() State {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot.Clone()
}

// Updates delivers a snapshot after every change. Slow readers only see the
// latest state.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// Voice returns the attached voice channel, which may be nil.
func (s *Session) Voice() *voice.Channel {
	return s.voice
}

// CurrentField returns the field awaiting a value in the details step.
func (s *Session) CurrentField() (model.AddendumField, bool) {
	st := s.State()
	if st.Step != StepDetails || !st.HasSelectedType() {
		return model.AddendumField{}, false
	}
	info := s.machine.catalog.MustGetInfo(st.SelectedType)
	if st.FieldIndex >= len(info.RequiredFields) {
		return model.AddendumField{}, false
	}
	return info.RequiredFields[st.FieldIndex], true
}

// Dispatch applies an explicit action and returns the resulting state. The
// error is non-nil only when the session is not running or ctx ends first;
// wizard failures are reported through State.Error.
func (s *Session) Dispatch(ctx context.Context, a Action) (State, error) {
	select {
	case <-s.started:
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	reply := make(chan State, 1)
	select {
	case s.inbox <- message{kind: msgAction, action: a, reply: reply}:
	case <-s.stopped:
		return State{}, ErrSessionStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case st := <-reply:
		return st, nil
	case <-s.stopped:
		return State{}, ErrSessionStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Close stops voice input, discards in-flight work, resets the wizard, and
// invokes the cancel callback. Closing an already empty wizard is harmless.
func (s *Session) Close() State {
	select {
	case <-s.started:
	default:
		return s.closeInline()
	}

	reply := make(chan State, 1)
	select {
	case s.inbox <- message{kind: msgClose, reply: reply}:
	case <-s.stopped:
		return s.closeInline()
	}

	select {
	case st := <-reply:
		return st
	case <-s.stopped:
		return s.closeInline()
	}
}

func (s *Session) closeInline() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(context.Background())
	return s.publishLocked()
}

func (s *Session) handle(ctx context.Context, msg message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.machine.state.Step

	switch msg.kind {
	case msgAction:
		s.applyLocked(ctx, msg.action)
	case msgClose:
		s.closeLocked(ctx)
	case msgGenerated:
		s.recorder.GenerationFinished(ctx, msg.addendum, msg.elapsed, msg.err)
		if msg.err != nil {
			s.logResult("generation", s.machine.GenerationFailed(msg.token, failureMessage(msg.err, "generate the addendum")))
		} else {
			s.logResult("generation", s.machine.GenerationSucceeded(msg.token, msg.content))
		}
	case msgSubmitted:
		s.recorder.SubmissionFinished(ctx, msg.addendum, msg.elapsed, msg.err)
		s.settleSubmissionLocked(ctx, msg)
	}

	if after := s.machine.state.Step; after != before {
		s.recorder.StepChanged(ctx, before, after)
	}

	st := s.publishLocked()
	if msg.reply != nil {
		msg.reply <- st
	}
}

func (s *Session) applyLocked(ctx context.Context, a Action) {
	var r Result

	switch a.Kind {
	case ActionSelectType:
		r = s.machine.SelectType(a.Type)
	case ActionText:
		r = s.machine.HandleUtterance(a.Text, s.now())
	case ActionCapture:
		r = s.machine.Capture(a.Value)
	case ActionBack:
		r = s.machine.Back()
	case ActionConfirm:
		r = s.machine.Confirm()
	case ActionEdit:
		r = s.machine.Edit()
	case ActionSubmit:
		r = s.machine.Submit()
	case ActionRetry:
		r = s.machine.Retry()
	case ActionStartVoice:
		if s.voice != nil {
			s.voice.Start(s.runCtx)
		}
		return
	case ActionStopVoice:
		if s.voice != nil {
			s.voice.Stop()
		}
		return
	case ActionClearError:
		s.machine.ClearError()
		return
	default:
		panic(fmt.Sprintf("wizard: unknown action %d", a.Kind))
	}

	s.logResult(a.Kind.String(), r)
	s.runEffectLocked(ctx, r.Effect)
}

func (s *Session) handleTranscript(ctx context.Context, tr voice.Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tr.Session <= s.staleVoice {
		s.logger.Debug("dropping transcript from a closed session", "text", tr.Text, "voice_session", tr.Session)
		s.recorder.TranscriptDropped(ctx)
		return
	}

	before := s.machine.state.Step
	s.machine.SetTranscript(tr.Text)

	if tr.Final {
		if s.machine.state.IsProcessing {
			s.logger.Debug("dropping transcript while processing", "text", tr.Text)
			s.recorder.TranscriptDropped(ctx)
		} else {
			r := s.machine.HandleUtterance(tr.Text, tr.At)
			s.logResult("utterance", r)
			s.runEffectLocked(ctx, r.Effect)
		}
	}

	if after := s.machine.state.Step; after != before {
		s.recorder.StepChanged(ctx, before, after)
	}
	s.publishLocked()
}

func (s *Session) runEffectLocked(ctx context.Context, e Effect) {
	switch e.Kind {
	case EffectGenerate:
		s.startUnitLocked(e, s.generationTimeout, func(unitCtx context.Context) message {
			content, err := s.generator.Generate(unitCtx, e.Info, e.Details)
			if err == nil && unitCtx.Err() != nil {
				err = unitCtx.Err()
			}
			return message{kind: msgGenerated, content: content, err: err}
		})
	case EffectSubmit:
		s.startUnitLocked(e, s.submissionTimeout, func(unitCtx context.Context) message {
			var err error
			if s.submitter != nil {
				err = s.submitter.Submit(unitCtx, model.CompletedAddendum{
					AddendumType:     e.Info.Type,
					Details:          e.Details,
					GeneratedContent: e.Content,
				})
			}
			return message{kind: msgSubmitted, err: err}
		})
	case EffectClose:
		s.closeLocked(ctx)
	}
}

// startUnitLocked runs one asynchronous unit and posts its result back to the
// inbox tagged with the effect's token.
func (s *Session) startUnitLocked(e Effect, timeout time.Duration, work func(context.Context) message) {
	unitCtx, cancel := context.WithTimeout(s.runCtx, timeout)
	s.unitCancel = cancel

	go func() {
		defer cancel()

		start := time.Now()
		msg := work(unitCtx)
		msg.token = e.Token
		msg.addendum = e.Info.Type
		msg.elapsed = time.Since(start)

		select {
		case s.inbox <- msg:
		case <-s.stopped:
		}
	}()
}

func (s *Session) settleSubmissionLocked(ctx context.Context, msg message) {
	if msg.err != nil {
		s.logResult("submission", s.machine.SubmissionFailed(msg.token, failureMessage(msg.err, "submit the addendum")))
		return
	}

	payload, ok := s.machine.SubmissionSucceeded(msg.token)
	if !ok {
		s.logger.Debug("discarding stale submission result", "token", msg.token)
		return
	}

	s.unitCancel = nil
	s.retireVoiceLocked()
	s.recorder.Completed(ctx, payload.AddendumType)
	s.logger.Info("addendum submitted", "addendum_type", payload.AddendumType)

	if s.onComplete != nil {
		s.onComplete(payload)
	}
}

func (s *Session) closeLocked(ctx context.Context) {
	step := s.machine.state.Step

	s.retireVoiceLocked()
	if s.unitCancel != nil {
		s.unitCancel()
		s.unitCancel = nil
	}
	s.machine.Reset()

	s.recorder.Closed(ctx, step)
	if s.onCancel != nil {
		s.onCancel()
	}
}

// retireVoiceLocked stops listening and marks every session so far as stale,
// so speech buffered before a reset never reaches the fresh state.
func (s *Session) retireVoiceLocked() {
	if s.voice == nil {
		return
	}
	s.voice.Stop()
	s.staleVoice = s.voice.Session()
}

func (s *Session) publishLocked() State {
	st := s.machine.State()

	s.snapMu.Lock()
	s.snapshot = st
	s.snapMu.Unlock()

	// Keep only the newest snapshot for slow readers.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- st.Clone():
	default:
	}

	return st
}

func (s *Session) logResult(trigger string, r Result) {
	if r.Ignored {
		s.logger.Debug("wizard trigger ignored", "trigger", trigger, "reason", r.Reason)
	}
}

func failureMessage(err error, what string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Timed out trying to %s. Try again.", what)
	}
	return common.UserMessage(err, fmt.Sprintf("Could not %s. Try again.", what))
}
