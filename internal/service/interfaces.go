// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
)

// ContractFilter defines filtering options for contract queries.
type ContractFilter struct {
	Search string
	Limit  int
	Offset int
}

// NewContract carries what is needed to open a contract at version 1.
type NewContract struct {
	KeyTerms      model.KeyTerms
	Content       string
	CreatedByName string
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Contract operations
	CreateContract(ctx context.Context, contract NewContract) (*model.Contract, error)
	GetContract(ctx context.Context, id string) (*model.Contract, error)
	ListContracts(ctx context.Context, filter ContractFilter) ([]model.Contract, error)

	// Amendment operations
	CreateAmendment(ctx context.Context, contractID string, addendum model.CompletedAddendum, title string) (*model.ContractAmendment, error)
	GetAmendment(ctx context.Context, id string) (*model.ContractAmendment, error)
	ListAmendments(ctx context.Context, contractID string) ([]model.ContractAmendment, error)
	UpdateAmendmentStatus(ctx context.Context, id string, status model.AmendmentStatus, actor string) (*model.ContractAmendment, error)
	GetStatusHistory(ctx context.Context, amendmentID string) ([]model.StatusChange, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// AddendumPublisher announces submitted addenda to downstream collaborators
// such as document delivery.
type AddendumPublisher interface {
	PublishSubmitted(ctx context.Context, contractID string, amendment model.ContractAmendment) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
