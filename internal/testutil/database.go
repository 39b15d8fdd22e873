// Package testutil provides contract fixtures backed by a real SQLite
// database for tests outside the storage package.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/Veraticus/amendment-desk/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestDB is a migrated database in the test's temporary directory.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Path    string
}

// SetupTestDB creates and migrates a database that is closed when the test
// ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	contract := db.MustCreateContract(testutil.NewContract().WithAddress("9 Oak Ave"))
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBAt(t, filepath.Join(t.TempDir(), "test.db"))
}

// SetupTestDBAt is SetupTestDB with an explicit database path, for tests that
// also open the database through another component.
func SetupTestDBAt(t *testing.T, path string) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err, "failed to create test storage")
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close test storage: %v", err)
		}
	})

	require.NoError(t, store.Migrate(context.Background()), "failed to migrate test storage")

	return &TestDB{Storage: store, Path: path, t: t}
}

// ContractBuilder assembles a contract to open.
type ContractBuilder struct {
	contract service.NewContract
}

// NewContract starts from a complete, realistic contract.
func NewContract() *ContractBuilder {
	return &ContractBuilder{contract: service.NewContract{
		KeyTerms: model.KeyTerms{
			PropertyAddress: "12 Elm St",
			BuyerName:       "Dana Reyes",
			SellerName:      "Sam Okafor",
			PurchasePrice:   decimal.NewFromInt(425000),
			EarnestMoney:    decimal.NewFromInt(10000),
			ClosingDate:     time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		Content:       "Purchase contract for 12 Elm St.",
		CreatedByName: "Dana Reyes",
	}}
}

// WithAddress sets the property address and matching contract text.
func (b *ContractBuilder) WithAddress(address string) *ContractBuilder {
	b.contract.KeyTerms.PropertyAddress = address
	b.contract.Content = "Purchase contract for " + address + "."
	return b
}

// WithPrice sets the purchase price in whole dollars.
func (b *ContractBuilder) WithPrice(dollars int64) *ContractBuilder {
	b.contract.KeyTerms.PurchasePrice = decimal.NewFromInt(dollars)
	return b
}

// WithClosingDate sets the closing date.
func (b *ContractBuilder) WithClosingDate(d time.Time) *ContractBuilder {
	b.contract.KeyTerms.ClosingDate = d
	return b
}

// Build returns the contract to open.
func (b *ContractBuilder) Build() service.NewContract {
	return b.contract
}

// MustCreateContract opens the contract or fails the test.
func (db *TestDB) MustCreateContract(b *ContractBuilder) *model.Contract {
	db.t.Helper()

	contract, err := db.Storage.CreateContract(context.Background(), b.Build())
	require.NoError(db.t, err, "failed to create contract")
	return contract
}

// ClosingExtension is a completed closing-extension addendum moving closing
// to newDate.
func ClosingExtension(newDate time.Time, reason string) model.CompletedAddendum {
	return model.CompletedAddendum{
		AddendumType: model.AddendumClosingExtension,
		Details: map[string]model.FieldValue{
			"new_closing_date": model.DateValue(&newDate, newDate.Format(model.DateLayout)),
			"reason":           model.TextValue(reason),
		},
		GeneratedContent: "CLOSING EXTENSION ADDENDUM\n\nNew Closing Date: " + newDate.Format(model.DateLayout),
	}
}

// MustCreateAmendment stores a pending amendment or fails the test.
func (db *TestDB) MustCreateAmendment(contractID string, addendum model.CompletedAddendum, title string) *model.ContractAmendment {
	db.t.Helper()

	a, err := db.Storage.CreateAmendment(context.Background(), contractID, addendum, title)
	require.NoError(db.t, err, "failed to create amendment")
	return a
}

// MustAdvance moves an amendment through each status in order or fails the
// test.
func (db *TestDB) MustAdvance(amendmentID, actor string, statuses ...model.AmendmentStatus) *model.ContractAmendment {
	db.t.Helper()

	var a *model.ContractAmendment
	for _, s := range statuses {
		var err error
		a, err = db.Storage.UpdateAmendmentStatus(context.Background(), amendmentID, s, actor)
		require.NoError(db.t, err, "failed to move amendment to %s", s)
	}
	return a
}
