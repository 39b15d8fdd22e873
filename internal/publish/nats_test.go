package publish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	flushErr   error
	msgs       []*nats.Msg
	publishErr []error
	mu         sync.Mutex
	attempts   int
}

func (f *fakeConn) PublishMsg(msg *nats.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts++
	if len(f.publishErr) > 0 {
		err := f.publishErr[0]
		f.publishErr = f.publishErr[1:]
		if err != nil {
			return err
		}
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	return f.flushErr
}

var fastRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func sampleAmendment() model.ContractAmendment {
	return model.ContractAmendment{
		ID:           "amd-1",
		ContractID:   "ctr-1",
		Title:        "Price Reduction Addendum",
		Status:       model.AmendmentPendingReview,
		AddendumType: model.AddendumPriceReduction,
		Content:      "PRICE REDUCTION ADDENDUM",
		Details: map[string]model.FieldValue{
			"new_purchase_price": model.CurrencyValue(decimal.NewFromInt(412000), "$412,000"),
		},
	}
}

func TestPublishSubmitted(t *testing.T) {
	conn := &fakeConn{}
	fixed := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	p := NewNATSPublisher(conn, WithSubject("test.amendments"), WithClock(func() time.Time { return fixed }), WithRetryOptions(fastRetry))

	require.NoError(t, p.PublishSubmitted(context.Background(), "ctr-1", sampleAmendment()))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "test.amendments", msg.Subject)
	assert.Equal(t, "ctr-1", msg.Header.Get("Amend-Contract-Id"))
	assert.Equal(t, "price_reduction", msg.Header.Get("Amend-Addendum-Type"))

	var event SubmittedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, msg.Header.Get(nats.MsgIdHdr), event.EventID)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "amd-1", event.AmendmentID)
	assert.Equal(t, model.AmendmentPendingReview, event.Status)
	assert.True(t, fixed.Equal(event.SubmittedAt))
	assert.True(t, decimal.NewFromInt(412000).Equal(event.Details["new_purchase_price"].Amount))
}

func TestPublishSubmitted_RetriesTransientFailure(t *testing.T) {
	conn := &fakeConn{publishErr: []error{nats.ErrConnectionReconnecting, nil}}
	p := NewNATSPublisher(conn, WithRetryOptions(fastRetry))

	require.NoError(t, p.PublishSubmitted(context.Background(), "ctr-1", sampleAmendment()))
	assert.Equal(t, 2, conn.attempts)
	assert.Len(t, conn.msgs, 1)
	assert.Equal(t, DefaultSubject, conn.msgs[0].Subject)
}

func TestPublishSubmitted_GivesUp(t *testing.T) {
	boom := errors.New("no responders")
	conn := &fakeConn{publishErr: []error{boom, boom, boom}}
	p := NewNATSPublisher(conn, WithRetryOptions(fastRetry))

	err := p.PublishSubmitted(context.Background(), "ctr-1", sampleAmendment())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, conn.attempts)
}

func TestPublishSubmitted_FlushFailure(t *testing.T) {
	conn := &fakeConn{flushErr: nats.ErrConnectionClosed}
	p := NewNATSPublisher(conn, WithRetryOptions(fastRetry))

	err := p.PublishSubmitted(context.Background(), "ctr-1", sampleAmendment())
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}

func TestPublishSubmitted_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &fakeConn{publishErr: []error{errors.New("slow"), errors.New("slow"), errors.New("slow")}}
	p := NewNATSPublisher(conn, WithRetryOptions(service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second}))

	err := p.PublishSubmitted(ctx, "ctr-1", sampleAmendment())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, conn.attempts)
}
