package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Contracts and versions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS contracts (
					id TEXT PRIMARY KEY,
					property_address TEXT NOT NULL,
					buyer_name TEXT NOT NULL DEFAULT '',
					seller_name TEXT NOT NULL DEFAULT '',
					purchase_price TEXT NOT NULL DEFAULT '0',
					earnest_money TEXT NOT NULL DEFAULT '0',
					closing_date DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS contract_versions (
					id TEXT PRIMARY KEY,
					contract_id TEXT NOT NULL,
					version INTEGER NOT NULL,
					version_type TEXT NOT NULL,
					content TEXT NOT NULL DEFAULT '',
					created_by_name TEXT NOT NULL DEFAULT '',
					amendment_id TEXT,
					is_current INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					UNIQUE(contract_id, version),
					FOREIGN KEY (contract_id) REFERENCES contracts(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_contract_versions_contract ON contract_versions(contract_id)`,
				// At most one current version per contract.
				`CREATE UNIQUE INDEX idx_contract_versions_current ON contract_versions(contract_id) WHERE is_current = 1`,
			})
		},
	},
	{
		Version:     2,
		Description: "Contract amendments",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS contract_amendments (
					id TEXT PRIMARY KEY,
					contract_id TEXT NOT NULL,
					title TEXT NOT NULL,
					status TEXT NOT NULL,
					addendum_type TEXT NOT NULL,
					details TEXT NOT NULL DEFAULT '{}',
					content TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					FOREIGN KEY (contract_id) REFERENCES contracts(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_contract_amendments_contract ON contract_amendments(contract_id)`,
				`CREATE INDEX idx_contract_amendments_status ON contract_amendments(status)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Amendment status history for auditing",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS amendment_status_history (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					amendment_id TEXT NOT NULL,
					from_status TEXT NOT NULL DEFAULT '',
					to_status TEXT NOT NULL,
					actor TEXT NOT NULL DEFAULT '',
					changed_at DATETIME NOT NULL,
					FOREIGN KEY (amendment_id) REFERENCES contract_amendments(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_amendment_status_history_amendment ON amendment_status_history(amendment_id)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Checkpoint metadata",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT,
					file_size INTEGER,
					row_counts TEXT,
					schema_version INTEGER,
					is_auto INTEGER NOT NULL DEFAULT 0
				)`,
			})
		},
	},
}

// SchemaVersion reports the schema version the database is at.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
