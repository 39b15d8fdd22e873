package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "valid oauth config",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: false,
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
			wantErr: false,
		},
		{
			name: "missing auth",
			config: Config{
				BatchSize:     100,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "multiple auth methods",
			config: Config{
				ClientID:           "test-client",
				ClientSecret:       "test-secret",
				RefreshToken:       "test-token",
				ServiceAccountPath: "/path/to/key.json",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name: "invalid batch size",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     0,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name: "negative retry attempts",
			config: Config{
				ClientID:      "test-client",
				ClientSecret:  "test-secret",
				RefreshToken:  "test-token",
				BatchSize:     100,
				RetryAttempts: -1,
				RetryDelay:    time.Second,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.EnableFormatting)
	assert.Equal(t, DefaultSpreadsheetName, config.SpreadsheetName)
	assert.Equal(t, "America/New_York", config.TimeZone)
	assert.Equal(t, 1000, config.BatchSize)
	assert.Equal(t, 3, config.RetryAttempts)
	assert.Equal(t, time.Second, config.RetryDelay)
}

var exportDay = time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)

func sampleContract() *model.Contract {
	versions := []model.ContractVersion{
		{ID: "v1", ContractID: "c1", Version: 1, VersionType: model.VersionOriginal, CreatedAt: exportDay, CreatedByName: "Dana Agent"},
		{ID: "v2", ContractID: "c1", Version: 2, VersionType: model.VersionAmendment, AmendmentID: "a1", CreatedAt: exportDay.AddDate(0, 0, 2), CreatedByName: "Sam Broker", IsCurrentVersion: true},
	}

	return &model.Contract{
		ID: "c1",
		KeyTerms: model.KeyTerms{
			PropertyAddress: "12 Orchard Lane",
			BuyerName:       "Avery Buyer",
			SellerName:      "Morgan Seller",
			PurchasePrice:   decimal.NewFromInt(480000),
			EarnestMoney:    decimal.NewFromInt(10000),
			ClosingDate:     time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		},
		Versions:       versions,
		CurrentVersion: versions[1],
		Amendments: []model.ContractAmendment{
			{
				ID:           "a1",
				ContractID:   "c1",
				Title:        "Price Reduction Addendum",
				Status:       model.AmendmentApproved,
				AddendumType: model.AddendumPriceReduction,
				Details: map[string]model.FieldValue{
					"reason":             model.TextValue("inspection findings"),
					"new_purchase_price": model.CurrencyValue(decimal.NewFromInt(480000), "$480,000"),
				},
				CreatedAt: exportDay.AddDate(0, 0, 1),
				UpdatedAt: exportDay.AddDate(0, 0, 2),
			},
			{
				ID:           "a2",
				ContractID:   "c1",
				Title:        "Repair Request Addendum",
				Status:       model.AmendmentPendingReview,
				AddendumType: model.AddendumRepairRequest,
				CreatedAt:    exportDay.AddDate(0, 0, 3),
				UpdatedAt:    exportDay.AddDate(0, 0, 3),
			},
		},
	}
}

func sampleStatusHistory() map[string][]model.StatusChange {
	return map[string][]model.StatusChange{
		"a1": {
			{AmendmentID: "a1", To: model.AmendmentPendingReview, Actor: "Dana Agent", ChangedAt: exportDay.AddDate(0, 0, 1)},
			{AmendmentID: "a1", From: model.AmendmentPendingReview, To: model.AmendmentApproved, Actor: "Sam Broker", ChangedAt: exportDay.AddDate(0, 0, 2)},
		},
		"a2": {
			{AmendmentID: "a2", To: model.AmendmentPendingReview, Actor: "Dana Agent", ChangedAt: exportDay.AddDate(0, 0, 3)},
		},
	}
}

func TestBuildTabData(t *testing.T) {
	exportedAt := exportDay.AddDate(0, 0, 10)
	data := BuildTabData(sampleContract(), sampleStatusHistory(), exportedAt)

	assert.Equal(t, "c1", data.Summary.ContractID)
	assert.Equal(t, 2, data.Summary.CurrentVersion)
	assert.Equal(t, 1, data.Summary.PendingAmendments)
	assert.True(t, decimal.NewFromInt(480000).Equal(data.Summary.PurchasePrice))
	assert.Equal(t, exportedAt, data.Summary.ExportedAt)

	require.Len(t, data.History, 2)
	assert.Equal(t, 2, data.History[0].Version, "most recent version first")
	assert.Equal(t, "Price Reduction Addendum", data.History[0].AmendmentTitle)
	assert.True(t, data.History[0].IsCurrent)
	assert.Equal(t, 1, data.History[1].Version)

	require.Len(t, data.Amendments, 2)
	assert.Equal(t, "a1", data.Amendments[0].ID)
	assert.Equal(t, "new_purchase_price: $480,000.00; reason: inspection findings", data.Amendments[0].Details)
	assert.Empty(t, data.Amendments[1].Details)

	require.Len(t, data.StatusChanges, 3)
	assert.Equal(t, model.AmendmentStatus(""), data.StatusChanges[0].From)
	assert.Equal(t, model.AmendmentApproved, data.StatusChanges[1].To)
	assert.Equal(t, "Repair Request Addendum", data.StatusChanges[2].AmendmentTitle)
}

func TestBuildTabData_NilContract(t *testing.T) {
	assert.Equal(t, TabData{}, BuildTabData(nil, nil, exportDay))
}

func TestTabValues(t *testing.T) {
	data := BuildTabData(sampleContract(), sampleStatusHistory(), exportDay.AddDate(0, 0, 10))

	summary := tabValues(TabSummary, data)
	assert.Equal(t, []any{"Contract Amendment Report", "12 Orchard Lane"}, summary[0])
	assert.Equal(t, []any{"Purchase Price", 480000.0}, summary[summaryPriceRow])
	assert.Equal(t, []any{"Earnest Money", 10000.0}, summary[summaryEarnestRow])
	assert.Equal(t, []any{"Closing Date", "2026-04-01"}, summary[7])

	history := tabValues(TabHistory, data)
	require.Len(t, history, 3)
	assert.Equal(t, []any{2, "amendment", "2026-03-04 10:30", "Sam Broker", "Price Reduction Addendum", "yes"}, history[1])

	amendments := tabValues(TabAmendments, data)
	require.Len(t, amendments, 3)
	assert.Equal(t, "pending_review", amendments[2][3])

	changes := tabValues(TabStatusChanges, data)
	require.Len(t, changes, 4)
	assert.Equal(t, "(created)", changes[1][2])

	assert.Nil(t, tabValues("Unknown", data))
}

func TestFormatTab(t *testing.T) {
	summary := formatTab(TabSummary, 7)
	require.Len(t, summary, 4)
	assert.Equal(t, int64(7), summary[0].RepeatCell.Range.SheetId)
	assert.Equal(t, "CURRENCY", summary[2].RepeatCell.Cell.UserEnteredFormat.NumberFormat.Type)

	history := formatTab(TabHistory, 9)
	require.Len(t, history, 3)
	assert.Equal(t, int64(1), history[1].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)
	assert.Equal(t, int64(6), history[2].AutoResizeDimensions.Dimensions.EndIndex)
}

// fakeSheetsAPI serves the subset of the Sheets REST API the writer calls.
type fakeSheetsAPI struct {
	updates  map[string][][]any
	existing []string
	cleared  []string
	batches  []sheets.BatchUpdateSpreadsheetRequest
	mu       sync.Mutex
	nextID   int64
	creates  int
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	var resp any

	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		var req sheets.Spreadsheet
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.creates++
		req.SpreadsheetId = "created-1"
		for _, s := range req.Sheets {
			f.nextID++
			s.Properties.SheetId = f.nextID
		}
		resp = req

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.batches = append(f.batches, req)
		out := sheets.BatchUpdateSpreadsheetResponse{}
		for _, q := range req.Requests {
			reply := &sheets.Response{}
			if q.AddSheet != nil {
				f.nextID++
				props := *q.AddSheet.Properties
				props.SheetId = f.nextID
				reply.AddSheet = &sheets.AddSheetResponse{Properties: &props}
			}
			out.Replies = append(out.Replies, reply)
		}
		resp = out

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		rng := strings.TrimSuffix(path[strings.Index(path, "/values/")+len("/values/"):], ":clear")
		f.cleared = append(f.cleared, rng)
		resp = sheets.ClearValuesResponse{}

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.updates[rng] = vr.Values
		resp = sheets.UpdateValuesResponse{}

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
		got := sheets.Spreadsheet{SpreadsheetId: strings.TrimPrefix(path, "/v4/spreadsheets/")}
		for _, title := range f.existing {
			f.nextID++
			got.Sheets = append(got.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: title, SheetId: f.nextID},
			})
		}
		resp = got

	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, config Config) *Writer {
	t.Helper()
	api.updates = make(map[string][][]any)

	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)

	config.RetryAttempts = 1
	config.RetryDelay = time.Millisecond
	return newWriterWithService(config, srv, nil)
}

func TestWriter_WriteCreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	config := DefaultConfig()
	config.ServiceAccountPath = "/unused.json"
	w := newTestWriter(t, api, config)

	data := BuildTabData(sampleContract(), sampleStatusHistory(), exportDay)
	id, err := w.Write(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "created-1", id)
	assert.Equal(t, 1, api.creates)
	assert.Len(t, api.cleared, len(Tabs))

	summary := api.updates["'Summary'!A1"]
	require.NotEmpty(t, summary)
	assert.Equal(t, []any{"Purchase Price", 480000.0}, summary[summaryPriceRow])

	history := api.updates["'Version History'!A1"]
	require.Len(t, history, 3)
	assert.Equal(t, "Version", history[0][0])

	// Only the formatting batch: every tab was created with the spreadsheet.
	require.Len(t, api.batches, 1)
	assert.NotEmpty(t, api.batches[0].Requests)
}

func TestWriter_WriteAddsMissingTabs(t *testing.T) {
	api := &fakeSheetsAPI{existing: []string{TabSummary}}
	config := DefaultConfig()
	config.ServiceAccountPath = "/unused.json"
	config.SpreadsheetID = "existing-9"
	config.EnableFormatting = false
	w := newTestWriter(t, api, config)

	id, err := w.Write(context.Background(), BuildTabData(sampleContract(), nil, exportDay))
	require.NoError(t, err)

	assert.Equal(t, "existing-9", id)
	assert.Zero(t, api.creates)
	require.Len(t, api.batches, 1)
	assert.Len(t, api.batches[0].Requests, len(Tabs)-1)
	for _, req := range api.batches[0].Requests {
		require.NotNil(t, req.AddSheet)
		assert.NotEqual(t, TabSummary, req.AddSheet.Properties.Title)
	}

	changes := api.updates["'Status Changes'!A1"]
	require.Len(t, changes, 1, "header only")
}

func TestWriter_WriteBatches(t *testing.T) {
	api := &fakeSheetsAPI{}
	config := DefaultConfig()
	config.ServiceAccountPath = "/unused.json"
	config.BatchSize = 4
	config.EnableFormatting = false
	w := newTestWriter(t, api, config)

	_, err := w.Write(context.Background(), BuildTabData(sampleContract(), sampleStatusHistory(), exportDay))
	require.NoError(t, err)

	assert.Len(t, api.updates["'Summary'!A1"], 4)
	assert.Len(t, api.updates["'Summary'!A5"], 4)
	assert.Len(t, api.updates["'Summary'!A9"], 3)
}
