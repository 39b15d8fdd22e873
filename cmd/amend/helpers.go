package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/config"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/storage"
	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/amend/amend.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseMoney accepts amounts like "$412,500" or "412500.00".
func parseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", s)
	}
	return amount, nil
}

// parseDay reads a calendar date in any common layout and truncates it to
// midnight UTC.
func parseDay(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// actorName is recorded on versions and status changes.
func actorName(flag string) string {
	if flag != "" {
		return flag
	}
	if actor := viper.GetString("wizard.actor"); actor != "" {
		return actor
	}
	return "amend"
}

func statusLabel(s model.AmendmentStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
