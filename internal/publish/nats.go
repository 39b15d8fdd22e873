// Package publish announces submitted addenda to downstream collaborators
// over NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is where submitted addenda are announced.
const DefaultSubject = "amendments.submitted"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// SubmittedEvent is the announcement payload.
type SubmittedEvent struct {
	SubmittedAt  time.Time                   `json:"submitted_at"`
	Details      map[string]model.FieldValue `json:"details"`
	EventID      string                      `json:"event_id"`
	ContractID   string                      `json:"contract_id"`
	AmendmentID  string                      `json:"amendment_id"`
	AddendumType model.AddendumType          `json:"addendum_type"`
	Title        string                      `json:"title"`
	Status       model.AmendmentStatus       `json:"status"`
	Content      string                      `json:"content"`
}

// NATSPublisher implements service.AddendumPublisher.
type NATSPublisher struct {
	conn      Conn
	logger    *slog.Logger
	now       func() time.Time
	subject   string
	retryOpts service.RetryOptions
}

var _ service.AddendumPublisher = (*NATSPublisher)(nil)

// Option configures a NATSPublisher.
type Option func(*NATSPublisher)

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) Option {
	return func(p *NATSPublisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *NATSPublisher) {
		p.logger = common.LoggerOrDefault(logger)
	}
}

// WithRetryOptions overrides the publish retry policy.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(p *NATSPublisher) {
		p.retryOpts = opts
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *NATSPublisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewNATSPublisher creates a publisher over an established connection.
func NewNATSPublisher(conn Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{
		conn:    conn,
		subject: DefaultSubject,
		logger:  slog.Default(),
		now:     time.Now,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials the server and returns the connection with a publisher
// bound to it. The caller closes the connection.
func Connect(url, clientName string, timeout time.Duration, opts ...Option) (*nats.Conn, *NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(timeout),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, NewNATSPublisher(nc, opts...), nil
}

// PublishSubmitted announces a persisted amendment. The event id doubles as
// the message id so JetStream consumers can de-duplicate retries.
func (p *NATSPublisher) PublishSubmitted(ctx context.Context, contractID string, amendment model.ContractAmendment) error {
	event := SubmittedEvent{
		EventID:      uuid.NewString(),
		ContractID:   contractID,
		AmendmentID:  amendment.ID,
		AddendumType: amendment.AddendumType,
		Title:        amendment.Title,
		Status:       amendment.Status,
		Content:      amendment.Content,
		Details:      amendment.Details,
		SubmittedAt:  p.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode submitted event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	msg.Header.Set("Amend-Contract-Id", contractID)
	msg.Header.Set("Amend-Addendum-Type", string(amendment.AddendumType))

	err = common.WithRetry(ctx, func() error {
		if err := p.conn.PublishMsg(msg); err != nil {
			return err
		}
		return p.conn.FlushWithContext(ctx)
	}, p.retryOpts)
	if err != nil {
		return fmt.Errorf("failed to publish amendment %s: %w", amendment.ID, err)
	}

	p.logger.Info("announced submitted amendment",
		"subject", p.subject,
		"contract_id", contractID,
		"amendment_id", amendment.ID,
		"event_id", event.EventID)
	return nil
}
