package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/Veraticus/amendment-desk/internal/service"
	"github.com/Veraticus/amendment-desk/internal/sheets"
	"github.com/Veraticus/amendment-desk/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Closing Extension")
	assert.Contains(t, out, "closing_extension")
	assert.Contains(t, out, "New Closing Date (date)")

	common, err := env.run(t, "", "catalog", "--common")
	require.NoError(t, err)
	assert.Contains(t, common, "Closing Extension")
	assert.Less(t, len(common), len(out))
}

func TestContractsCreateAndList(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "contracts", "create",
		"--address", "12 Elm St",
		"--buyer", "Dana Reyes",
		"--seller", "Sam Okafor",
		"--price", "$425,000",
		"--earnest", "$10,000",
		"--closing", "2026-04-15",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Contract created for 12 Elm St")

	contracts, err := env.store(t).ListContracts(context.Background(), service.ContractFilter{})
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	c := contracts[0]
	assert.Equal(t, "Dana Reyes", c.KeyTerms.BuyerName)
	assert.Equal(t, "425000", c.KeyTerms.PurchasePrice.String())
	assert.Equal(t, 1, c.CurrentVersion.Version)
	assert.Equal(t, "amend", c.CurrentVersion.CreatedByName)

	out, err = env.run(t, "", "contracts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, c.ID)
	assert.Contains(t, out, "$425,000.00")
	assert.Contains(t, out, "2026-04-15")

	out, err = env.run(t, "", "contracts", "list", "--search", "nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, "No contracts found")
}

func TestContractsCreate_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing address", args: []string{"contracts", "create"}, want: "address"},
		{name: "bad price", args: []string{"contracts", "create", "--address", "1 A St", "--price", "lots"}, want: "--price"},
		{name: "bad closing", args: []string{"contracts", "create", "--address", "1 A St", "--closing", "soon"}, want: "--closing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestContractsShow(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)

	out, err := env.run(t, "", "contracts", "show", contract.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "12 Elm St")
	assert.Contains(t, out, "Sam Okafor")
	assert.Contains(t, out, "Purchase contract for 12 Elm St.")

	_, err = env.run(t, "", "contracts", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAddendumCommand_Plain(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)

	out, err := env.run(t, "1\n2026-05-01\nlender needs more time\nc\ns\n", "addendum", contract.ID, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "What is the new closing date?")
	assert.Contains(t, out, "submitted for 12 Elm St")
	assert.Contains(t, out, "pending review")

	amendments, err := env.store(t).ListAmendments(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, amendments, 1)
	assert.Equal(t, model.AddendumClosingExtension, amendments[0].AddendumType)
	assert.Equal(t, model.AmendmentPendingReview, amendments[0].Status)
	assert.Equal(t, "lender needs more time", amendments[0].Details["reason"].String())
	assert.Contains(t, amendments[0].Content, "New Closing Date")
}

func TestAddendumCommand_PlainCancel(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)

	out, err := env.run(t, "1\nquit\n", "addendum", contract.ID, "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing was submitted")

	amendments, err := env.store(t).ListAmendments(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Empty(t, amendments)
}

func TestAddendumCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)

	_, err := env.run(t, "", "addendum", "missing", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = env.run(t, "", "addendum", contract.ID, "--plain", "--voice", "carrier-pigeon:")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "voice")

	_, err = env.run(t, "", "addendum", contract.ID, "--plain", "--generator", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.backend")
}

func seedAmendment(t *testing.T, env *testEnv, contract *model.Contract) *model.ContractAmendment {
	t.Helper()

	closing := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return env.db(t).MustCreateAmendment(contract.ID,
		testutil.ClosingExtension(closing, "lender needs more time"),
		"Closing Extension Addendum")
}

func TestAmendmentsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)
	a := seedAmendment(t, env, contract)

	out, err := env.run(t, "", "amendments", "list", contract.ID)
	require.NoError(t, err)
	assert.Contains(t, out, a.ID)
	assert.Contains(t, out, "pending review")

	// Approval needs signatures first.
	_, err = env.run(t, "", "amendments", "approve", a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move to approved")

	out, err = env.run(t, "", "amendments", "sign", a.ID, "--actor", "Pat Lee")
	require.NoError(t, err)
	assert.Contains(t, out, "pending signature")

	out, err = env.run(t, "", "amendments", "approve", a.ID, "--actor", "Pat Lee")
	require.NoError(t, err)
	assert.Contains(t, out, "approved")
	assert.Contains(t, out, "Contract is now at v2")

	updated, err := env.store(t).GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentVersion.Version)
	assert.Equal(t, "2026-05-01", updated.KeyTerms.ClosingDate.Format("2006-01-02"))

	out, err = env.run(t, "", "amendments", "show", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "New Closing Date")
	assert.Contains(t, out, "Status history")
	assert.Contains(t, out, "Pat Lee")

	// Approval left a restore point behind.
	out, err = env.run(t, "", "checkpoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "auto-approve-")
	assert.Contains(t, out, "auto")
}

func TestAmendmentsReject(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)
	a := seedAmendment(t, env, contract)

	out, err := env.run(t, "", "amendments", "reject", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")

	_, err = env.run(t, "", "amendments", "sign", a.ID)
	require.Error(t, err)

	_, err = env.run(t, "", "amendments", "reject", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHistoryCommand(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)
	seedAmendment(t, env, contract)

	out, err := env.run(t, "", "history", contract.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Contract history: 12 Elm St")
	assert.Contains(t, out, "v1")
	assert.Contains(t, out, "(current)")
	assert.Contains(t, out, "Closing Extension Addendum")
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)
	a := seedAmendment(t, env, contract)

	mock := sheets.NewMockWriter()
	mock.WriteFunc = func(_ context.Context, _ sheets.TabData) (string, error) {
		return "https://docs.google.com/spreadsheets/d/test", nil
	}
	var gotCfg sheets.Config
	orig := newExporter
	newExporter = func(_ context.Context, cfg sheets.Config, _ *slog.Logger) (sheets.Exporter, error) {
		gotCfg = cfg
		return mock, nil
	}
	t.Cleanup(func() { newExporter = orig })

	run := func(args ...string) (string, error) {
		viper.Set("sheets.service_account_path", "/tmp/service-account.json")
		return env.run(t, "", args...)
	}

	out, err := run("export", contract.ID, "--spreadsheet-id", "sheet-123")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 12 Elm St")
	assert.Contains(t, out, "https://docs.google.com/spreadsheets/d/test")
	assert.Equal(t, "sheet-123", gotCfg.SpreadsheetID)

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 1)
	data := calls[0].Data
	assert.Equal(t, contract.ID, data.Summary.ContractID)
	assert.Equal(t, 1, data.Summary.PendingAmendments)
	require.Len(t, data.Amendments, 1)
	assert.Equal(t, a.ID, data.Amendments[0].ID)
	require.Len(t, data.StatusChanges, 1)
	assert.Equal(t, model.AmendmentPendingReview, data.StatusChanges[0].To)

	mock.SetWriteError(errors.New("quota exceeded"))
	_, err = run("export", contract.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExportCommand_RequiresCredentials(t *testing.T) {
	env := newTestEnv(t)
	contract := env.seedContract(t)
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")

	_, err := env.run(t, "", "export", contract.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets configuration")
}

func TestCheckpointCommands(t *testing.T) {
	env := newTestEnv(t)
	env.seedContract(t)

	out, err := env.run(t, "", "checkpoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoints found.")

	out, err = env.run(t, "", "checkpoint", "create", "--tag", "before-review", "--description", "clean slate")
	require.NoError(t, err)
	assert.Contains(t, out, "Created checkpoint before-review")
	assert.Contains(t, out, "clean slate")

	out, err = env.run(t, "", "checkpoint", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "before-review")
	assert.Contains(t, out, "manual")

	out, err = env.run(t, "n\n", "checkpoint", "delete", "before-review")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")

	out, err = env.run(t, "y\n", "checkpoint", "delete", "before-review")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted checkpoint before-review")

	_, err = env.run(t, "", "checkpoint", "delete", "before-review", "--force")
	require.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Migrations pending")

	out, err = env.run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database at schema version")

	out, err = env.run(t, "", "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Migrations pending")
}
