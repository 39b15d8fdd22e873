// Package storage provides the SQLite persistence layer for contracts, their
// versions, and amendments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidStatus    = errors.New("invalid amendment status")
	ErrInvalidContract  = errors.New("invalid contract")
	ErrInvalidAmendment = errors.New("invalid amendment")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateNewContract validates the terms a contract is opened with.
func validateNewContract(c service.NewContract) error {
	if strings.TrimSpace(c.KeyTerms.PropertyAddress) == "" {
		return fmt.Errorf("%w: missing property address", ErrInvalidContract)
	}
	if c.KeyTerms.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: negative purchase price", ErrInvalidContract)
	}
	if c.KeyTerms.EarnestMoney.IsNegative() {
		return fmt.Errorf("%w: negative earnest money", ErrInvalidContract)
	}
	return nil
}

// validateAddendum validates a submitted addendum before it becomes an
// amendment.
func validateAddendum(a model.CompletedAddendum, title string) error {
	if strings.TrimSpace(string(a.AddendumType)) == "" {
		return fmt.Errorf("%w: missing addendum type", ErrInvalidAmendment)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidAmendment)
	}
	if strings.TrimSpace(a.GeneratedContent) == "" {
		return fmt.Errorf("%w: missing content", ErrInvalidAmendment)
	}
	return nil
}

// validateStatus ensures a requested status is known.
func validateStatus(status model.AmendmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return nil
}
