package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/google/uuid"
)

const amendmentColumns = `id, contract_id, title, status, addendum_type, details, content,
	created_at, updated_at`

// CreateAmendment records a submitted addendum against a contract. New
// amendments start in pending_review.
func (s *SQLiteStorage) CreateAmendment(ctx context.Context, contractID string, addendum model.CompletedAddendum, title string) (*model.ContractAmendment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(contractID, "contractID"); err != nil {
		return nil, err
	}
	if err := validateAddendum(addendum, title); err != nil {
		return nil, err
	}

	details, err := json.Marshal(addendum.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode addendum details: %w", err)
	}

	now := s.timestamp()
	a := &model.ContractAmendment{
		ID:           uuid.NewString(),
		ContractID:   contractID,
		Title:        title,
		Status:       model.AmendmentPendingReview,
		AddendumType: addendum.AddendumType,
		Details:      model.CloneDetails(addendum.Details),
		Content:      addendum.GeneratedContent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts WHERE id = ?`, contractID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check contract: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("contract %s: %w", contractID, common.ErrNotFound)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO contract_amendments (`+amendmentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			a.ContractID,
			a.Title,
			string(a.Status),
			string(a.AddendumType),
			string(details),
			a.Content,
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert amendment: %w", err)
		}

		return recordStatusChange(ctx, tx, model.StatusChange{
			AmendmentID: a.ID,
			To:          a.Status,
			ChangedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// GetAmendment loads one amendment.
func (s *SQLiteStorage) GetAmendment(ctx context.Context, id string) (*model.ContractAmendment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getAmendment(ctx, s.db, id)
}

func getAmendment(ctx context.Context, q querier, id string) (*model.ContractAmendment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+amendmentColumns+` FROM contract_amendments WHERE id = ?`, id)
	a, err := scanAmendment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("amendment %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get amendment: %w", err)
	}
	return &a, nil
}

// ListAmendments returns a contract's amendments, oldest first.
func (s *SQLiteStorage) ListAmendments(ctx context.Context, contractID string) ([]model.ContractAmendment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(contractID, "contractID"); err != nil {
		return nil, err
	}
	return listAmendments(ctx, s.db, contractID)
}

func listAmendments(ctx context.Context, q querier, contractID string) ([]model.ContractAmendment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+amendmentColumns+`
		FROM contract_amendments
		WHERE contract_id = ?
		ORDER BY created_at, rowid`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list amendments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var amendments []model.ContractAmendment
	for rows.Next() {
		a, err := scanAmendment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan amendment: %w", err)
		}
		amendments = append(amendments, a)
	}
	return amendments, rows.Err()
}

func scanAmendment(row scanner) (model.ContractAmendment, error) {
	var (
		a            model.ContractAmendment
		status       string
		addendumType string
		details      string
	)
	err := row.Scan(
		&a.ID,
		&a.ContractID,
		&a.Title,
		&status,
		&addendumType,
		&details,
		&a.Content,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}

	a.Status = model.AmendmentStatus(status)
	a.AddendumType = model.AddendumType(addendumType)
	if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
		return a, fmt.Errorf("%w: amendment %s details: %w", common.ErrDatabaseCorrupted, a.ID, err)
	}
	return a, nil
}

// UpdateAmendmentStatus moves an amendment through its lifecycle. Approval
// also writes the next contract version, makes it current, and applies the
// amendment's key-term changes, all in one transaction.
func (s *SQLiteStorage) UpdateAmendmentStatus(ctx context.Context, id string, status model.AmendmentStatus, actor string) (*model.ContractAmendment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	now := s.timestamp()
	var updated *model.ContractAmendment

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		a, err := getAmendment(ctx, tx, id)
		if err != nil {
			return err
		}

		if !a.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: amendment %s from %s to %s", common.ErrInvalidTransition, id, a.Status, status)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE contract_amendments SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id); err != nil {
			return fmt.Errorf("failed to update amendment status: %w", err)
		}

		if err := recordStatusChange(ctx, tx, model.StatusChange{
			AmendmentID: id,
			From:        a.Status,
			To:          status,
			Actor:       actor,
			ChangedAt:   now,
		}); err != nil {
			return err
		}

		a.Status = status
		a.UpdatedAt = now

		if status == model.AmendmentApproved {
			if err := applyApproval(ctx, tx, *a, now, actor); err != nil {
				return err
			}
		}

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("amendment status updated", "amendment_id", id, "status", status, "actor", actor)
	return updated, nil
}

func applyApproval(ctx context.Context, tx *sql.Tx, a model.ContractAmendment, at time.Time, actor string) error {
	contract, err := getContract(ctx, tx, a.ContractID)
	if err != nil {
		return err
	}
	if err := contract.Validate(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrVersionInvariant, err)
	}

	next, err := amendment.NextVersion(contract, a, at, actor)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE contract_versions SET is_current = 0 WHERE contract_id = ? AND is_current = 1`,
		contract.ID); err != nil {
		return fmt.Errorf("failed to clear current version: %w", err)
	}
	if err := insertVersion(ctx, tx, next); err != nil {
		return err
	}

	terms, _ := amendment.ApplyKeyTerms(contract.KeyTerms, a)
	return updateKeyTerms(ctx, tx, contract.ID, terms, at)
}

func recordStatusChange(ctx context.Context, tx *sql.Tx, change model.StatusChange) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO amendment_status_history (amendment_id, from_status, to_status, actor, changed_at)
		VALUES (?, ?, ?, ?, ?)`,
		change.AmendmentID,
		string(change.From),
		string(change.To),
		change.Actor,
		change.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	return nil
}

// GetStatusHistory returns an amendment's audited status changes, oldest
// first.
func (s *SQLiteStorage) GetStatusHistory(ctx context.Context, amendmentID string) ([]model.StatusChange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(amendmentID, "amendmentID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT amendment_id, from_status, to_status, actor, changed_at
		FROM amendment_status_history
		WHERE amendment_id = ?
		ORDER BY id`, amendmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var changes []model.StatusChange
	for rows.Next() {
		var (
			c        model.StatusChange
			from, to string
		)
		if err := rows.Scan(&c.AmendmentID, &from, &to, &c.Actor, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		c.From = model.AmendmentStatus(from)
		c.To = model.AmendmentStatus(to)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
