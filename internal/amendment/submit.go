package amendment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/amendment-desk/internal/catalog"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
)

// Submitter persists a completed addendum as a pending amendment on one
// contract and announces it. It satisfies wizard.Submitter.
type Submitter struct {
	store      service.Storage
	publisher  service.AddendumPublisher
	catalog    *catalog.Catalog
	logger     *slog.Logger
	onCreated  func(model.ContractAmendment)
	contractID string
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithPublisher announces each created amendment. Announcement failures are
// logged and do not fail the submission.
func WithPublisher(p service.AddendumPublisher) SubmitterOption {
	return func(s *Submitter) {
		s.publisher = p
	}
}

// WithSubmitLogger sets the logger.
func WithSubmitLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = common.LoggerOrDefault(logger)
	}
}

// OnCreated is called with each amendment after it is stored.
func OnCreated(fn func(model.ContractAmendment)) SubmitterOption {
	return func(s *Submitter) {
		s.onCreated = fn
	}
}

// NewSubmitter creates a Submitter for contractID.
func NewSubmitter(store service.Storage, c *catalog.Catalog, contractID string, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		store:      store,
		catalog:    c,
		contractID: contractID,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores the addendum with status pending_review.
func (s *Submitter) Submit(ctx context.Context, addendum model.CompletedAddendum) error {
	info, err := s.catalog.GetInfo(addendum.AddendumType)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrSubmissionFailed, err)
	}

	created, err := s.store.CreateAmendment(ctx, s.contractID, addendum, Title(info))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrSubmissionFailed, err)
	}

	s.logger.Info("amendment created",
		"contract_id", s.contractID,
		"amendment_id", created.ID,
		"addendum_type", created.AddendumType)

	if s.publisher != nil {
		if err := s.publisher.PublishSubmitted(ctx, s.contractID, *created); err != nil {
			s.logger.Warn("failed to announce amendment",
				"amendment_id", created.ID,
				"error", err)
		}
	}

	if s.onCreated != nil {
		s.onCreated(*created)
	}
	return nil
}
