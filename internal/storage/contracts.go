package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const contractColumns = `id, property_address, buyer_name, seller_name, purchase_price,
	earnest_money, closing_date, created_at, updated_at`

const versionColumns = `id, contract_id, version, version_type, content, created_by_name,
	amendment_id, is_current, created_at`

// CreateContract opens a contract with its original version.
func (s *SQLiteStorage) CreateContract(ctx context.Context, nc service.NewContract) (*model.Contract, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateNewContract(nc); err != nil {
		return nil, err
	}

	now := s.timestamp()
	contract := &model.Contract{
		ID:        uuid.NewString(),
		KeyTerms:  nc.KeyTerms,
		CreatedAt: now,
		UpdatedAt: now,
	}
	original := model.ContractVersion{
		ID:               uuid.NewString(),
		ContractID:       contract.ID,
		Version:          1,
		VersionType:      model.VersionOriginal,
		Content:          nc.Content,
		CreatedAt:        now,
		CreatedByName:    nc.CreatedByName,
		IsCurrentVersion: true,
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contracts (`+contractColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			contract.ID,
			nc.KeyTerms.PropertyAddress,
			nc.KeyTerms.BuyerName,
			nc.KeyTerms.SellerName,
			nc.KeyTerms.PurchasePrice.String(),
			nc.KeyTerms.EarnestMoney.String(),
			nullTime(nc.KeyTerms.ClosingDate),
			now,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contract: %w", err)
		}
		return insertVersion(ctx, tx, original)
	})
	if err != nil {
		return nil, err
	}

	contract.Versions = []model.ContractVersion{original}
	contract.CurrentVersion = original
	return contract, nil
}

// GetContract loads a contract with its versions and amendments.
func (s *SQLiteStorage) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getContract(ctx, s.db, id)
}

func getContract(ctx context.Context, q querier, id string) (*model.Contract, error) {
	row := q.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)
	contract, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contract %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	versions, err := listVersions(ctx, q, id)
	if err != nil {
		return nil, err
	}
	contract.Versions = versions
	for _, v := range versions {
		if v.IsCurrentVersion {
			contract.CurrentVersion = v
		}
	}

	amendments, err := listAmendments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	contract.Amendments = amendments

	return contract, nil
}

// ListContracts returns contracts with their current version, newest first.
// Versions and amendments are not loaded.
func (s *SQLiteStorage) ListContracts(ctx context.Context, filter service.ContractFilter) ([]model.Contract, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + contractColumns + ` FROM contracts`
	var args []any
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` WHERE property_address LIKE ? OR buyer_name LIKE ? OR seller_name LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contracts []model.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}

	for i := range contracts {
		current, err := currentVersion(ctx, s.db, contracts[i].ID)
		if err != nil {
			return nil, err
		}
		contracts[i].CurrentVersion = current
	}

	return contracts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (*model.Contract, error) {
	var (
		c             model.Contract
		purchasePrice string
		earnestMoney  string
		closingDate   sql.NullTime
	)

	err := row.Scan(
		&c.ID,
		&c.KeyTerms.PropertyAddress,
		&c.KeyTerms.BuyerName,
		&c.KeyTerms.SellerName,
		&purchasePrice,
		&earnestMoney,
		&closingDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.KeyTerms.PurchasePrice, err = decimal.NewFromString(purchasePrice); err != nil {
		return nil, fmt.Errorf("%w: purchase price %q", common.ErrDatabaseCorrupted, purchasePrice)
	}
	if c.KeyTerms.EarnestMoney, err = decimal.NewFromString(earnestMoney); err != nil {
		return nil, fmt.Errorf("%w: earnest money %q", common.ErrDatabaseCorrupted, earnestMoney)
	}
	if closingDate.Valid {
		c.KeyTerms.ClosingDate = closingDate.Time
	}

	return &c, nil
}

func listVersions(ctx context.Context, q querier, contractID string) ([]model.ContractVersion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM contract_versions
		WHERE contract_id = ?
		ORDER BY version`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []model.ContractVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func currentVersion(ctx context.Context, q querier, contractID string) (model.ContractVersion, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM contract_versions
		WHERE contract_id = ? AND is_current = 1`, contractID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContractVersion{}, fmt.Errorf("%w: contract %s has no current version", common.ErrVersionInvariant, contractID)
	}
	if err != nil {
		return model.ContractVersion{}, fmt.Errorf("failed to get current version: %w", err)
	}
	return v, nil
}

func scanVersion(row scanner) (model.ContractVersion, error) {
	var (
		v           model.ContractVersion
		versionType string
		amendmentID sql.NullString
	)
	err := row.Scan(
		&v.ID,
		&v.ContractID,
		&v.Version,
		&versionType,
		&v.Content,
		&v.CreatedByName,
		&amendmentID,
		&v.IsCurrentVersion,
		&v.CreatedAt,
	)
	v.VersionType = model.VersionType(versionType)
	v.AmendmentID = amendmentID.String
	return v, err
}

func insertVersion(ctx context.Context, tx *sql.Tx, v model.ContractVersion) error {
	var amendmentID any
	if v.AmendmentID != "" {
		amendmentID = v.AmendmentID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO contract_versions (`+versionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.ContractID,
		v.Version,
		string(v.VersionType),
		v.Content,
		v.CreatedByName,
		amendmentID,
		v.IsCurrentVersion,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert version %d: %w", v.Version, err)
	}
	return nil
}

func updateKeyTerms(ctx context.Context, tx *sql.Tx, contractID string, terms model.KeyTerms, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE contracts
		SET purchase_price = ?, earnest_money = ?, closing_date = ?, updated_at = ?
		WHERE id = ?`,
		terms.PurchasePrice.String(),
		terms.EarnestMoney.String(),
		nullTime(terms.ClosingDate),
		at,
		contractID,
	)
	if err != nil {
		return fmt.Errorf("failed to update key terms: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
