package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	startErr  error
	events    chan Event
	starts    int
	stops     int
	mu        sync.Mutex
	supported bool
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{supported: true}
}

func (f *fakeRecognizer) Supported() bool { return f.supported }

func (f *fakeRecognizer) Start(context.Context) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.events = make(chan Event, 16)
	return f.events, nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeRecognizer) emit(ev Event) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	ch <- ev
}

func (f *fakeRecognizer) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.events)
}

func (f *fakeRecognizer) counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func nextTranscript(t *testing.T, c *Channel) Transcript {
	t.Helper()
	select {
	case tr := <-c.Transcripts():
		return tr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript")
		return Transcript{}
	}
}

func TestChannel_StartUnsupported(t *testing.T) {
	c := NewChannel(Unsupported{})

	c.Start(context.Background())

	assert.False(t, c.Supported())
	assert.False(t, c.Listening())
	assert.ErrorIs(t, c.Err(), ErrUnsupported)
}

func TestChannel_NilRecognizerIsUnsupported(t *testing.T) {
	c := NewChannel(nil)
	assert.False(t, c.Supported())
}

func TestChannel_StartTwiceIsNoop(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec)
	defer c.Stop()

	c.Start(context.Background())
	c.Start(context.Background())

	starts, _ := rec.counts()
	assert.Equal(t, 1, starts)
	assert.True(t, c.Listening())
}

func TestChannel_ForwardsTranscriptsInOrder(t *testing.T) {
	rec := newFakeRecognizer()
	stamp := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	c := NewChannel(rec, WithClock(func() time.Time { return stamp }), WithSilenceWindow(time.Minute))
	defer c.Stop()

	c.Start(context.Background())
	rec.emit(Event{Text: "I need"})
	rec.emit(Event{Text: ""})
	rec.emit(Event{Text: "I need a closing extension", Final: true})

	first := nextTranscript(t, c)
	second := nextTranscript(t, c)

	assert.Equal(t, Transcript{Text: "I need", At: stamp, Session: 1}, first)
	assert.Equal(t, Transcript{Text: "I need a closing extension", Final: true, At: stamp, Session: 1}, second)
}

func TestChannel_SilenceAutoStop(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec, WithSilenceWindow(30*time.Millisecond))

	c.Start(context.Background())
	rec.emit(Event{Text: "hello", Final: true})
	nextTranscript(t, c)

	require.Eventually(t, func() bool { return !c.Listening() }, time.Second, 5*time.Millisecond)
	_, stops := rec.counts()
	assert.Equal(t, 1, stops)
	assert.NoError(t, c.Err())
}

func TestChannel_NoAutoStopBeforeSpeech(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec, WithSilenceWindow(20*time.Millisecond))
	defer c.Stop()

	c.Start(context.Background())
	time.Sleep(80 * time.Millisecond)

	assert.True(t, c.Listening())
}

func TestChannel_ErrorEventStopsSession(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec)

	c.Start(context.Background())
	rec.emit(Event{Err: ErrPermissionDenied})

	require.Eventually(t, func() bool { return !c.Listening() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Err(), ErrPermissionDenied)

	c.ClearError()
	assert.NoError(t, c.Err())
}

func TestChannel_StreamEndWithoutSpeech(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec)

	c.Start(context.Background())
	rec.end()

	require.Eventually(t, func() bool { return !c.Listening() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.Err(), ErrNoSpeech)
}

func TestChannel_StartFailureFillsErrorSlot(t *testing.T) {
	rec := newFakeRecognizer()
	rec.startErr = ErrNetwork
	c := NewChannel(rec)

	c.Start(context.Background())

	assert.False(t, c.Listening())
	assert.ErrorIs(t, c.Err(), ErrNetwork)
}

func TestChannel_StopAndRestart(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec)

	c.Start(context.Background())
	c.Stop()
	c.Stop()
	assert.False(t, c.Listening())

	c.Start(context.Background())
	defer c.Stop()

	starts, stops := rec.counts()
	assert.Equal(t, 2, starts)
	assert.Equal(t, 1, stops)
	assert.True(t, c.Listening())
}

func TestChannel_TranscriptsCarrySession(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewChannel(rec)
	assert.Zero(t, c.Session())

	c.Start(context.Background())
	first := c.Session()
	rec.emit(Event{Text: "price reduction", Final: true})
	assert.Equal(t, first, nextTranscript(t, c).Session)
	c.Stop()

	c.Start(context.Background())
	defer c.Stop()
	assert.Greater(t, c.Session(), first)
	rec.emit(Event{Text: "fifteen thousand", Final: true})
	assert.Equal(t, c.Session(), nextTranscript(t, c).Session)
}

// slowRecognizer blocks in Start until release is closed, like a websocket
// dial to an unresponsive speech service.
type slowRecognizer struct {
	*fakeRecognizer
	entered chan struct{}
	release chan struct{}
}

func (s *slowRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	close(s.entered)
	<-s.release
	return s.fakeRecognizer.Start(ctx)
}

func TestChannel_StopDuringSlowStart(t *testing.T) {
	rec := &slowRecognizer{
		fakeRecognizer: newFakeRecognizer(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	c := NewChannel(rec)

	started := make(chan struct{})
	go func() {
		defer close(started)
		c.Start(context.Background())
	}()
	<-rec.entered

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		assert.False(t, c.Listening())
		assert.NoError(t, c.Err())
		c.Start(context.Background())
		c.Stop()
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("channel blocked while the recognizer was connecting")
	}

	close(rec.release)
	<-started

	assert.False(t, c.Listening())
	starts, stops := rec.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops, "an abandoned start releases the recognizer")
}
