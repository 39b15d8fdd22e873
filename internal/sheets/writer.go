package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04"
)

// Exporter writes contract export data somewhere.
type Exporter interface {
	Write(ctx context.Context, data TabData) (string, error)
}

// Writer exports contract history to Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ Exporter = (*Writer)(nil)

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create the Sheets service
	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriterWithService(config, service, logger), nil
}

func newWriterWithService(config Config, service *sheets.Service, logger *slog.Logger) *Writer {
	return &Writer{
		config:  config,
		service: service,
		logger:  common.LoggerOrDefault(logger),
	}
}

// Write replaces every tab's contents with data and returns the spreadsheet id.
func (w *Writer) Write(ctx context.Context, data TabData) (string, error) {
	w.logger.Info("starting contract export",
		"contract_id", data.Summary.ContractID,
		"versions", len(data.History),
		"amendments", len(data.Amendments))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	// Get or create spreadsheet
	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	rows := 0
	for _, tab := range Tabs {
		values := tabValues(tab, data)
		rows += len(values)

		err = common.WithRetry(ctx, func() error {
			if clearErr := w.clearSheet(ctx, spreadsheetID, tab); clearErr != nil {
				return fmt.Errorf("failed to clear %s: %w", tab, clearErr)
			}
			return w.writeData(ctx, spreadsheetID, tab, values)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write %s: %w", tab, err)
		}
	}

	// Apply formatting if enabled
	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetIDs)
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
			// Don't fail the whole operation if formatting fails
		}
	}

	w.logger.Info("contract export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", rows)

	return spreadsheetID, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.Auth() == AuthServiceAccount {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet id and the sheet id of every
// export tab, adding tabs that are missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	var (
		spreadsheetID string
		existing      []*sheets.Sheet
	)

	if w.config.SpreadsheetID != "" {
		// Verify the spreadsheet exists and is accessible
		got, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		spreadsheetID = got.SpreadsheetId
		if spreadsheetID == "" {
			spreadsheetID = w.config.SpreadsheetID
		}
		existing = got.Sheets
	} else {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
		}
		for _, tab := range Tabs {
			spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
				Properties: &sheets.SheetProperties{Title: tab},
			})
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		spreadsheetID = created.SpreadsheetId
		existing = created.Sheets
	}

	sheetIDs := make(map[string]int64, len(Tabs))
	for _, s := range existing {
		if s.Properties != nil {
			sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}

	var add []*sheets.Request
	for _, tab := range Tabs {
		if _, ok := sheetIDs[tab]; !ok {
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: tab},
				},
			})
		}
	}
	if len(add) == 0 {
		return spreadsheetID, sheetIDs, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add export tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			sheetIDs[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}

	return spreadsheetID, sheetIDs, nil
}

// clearSheet clears all data from one tab.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tabRange(tab, "A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes one tab's values.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	// Write in batches to avoid API limits
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := tabRange(tab, fmt.Sprintf("A%d", i+1))
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", tab, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting applies formatting to every export tab.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64) error {
	var requests []*sheets.Request
	for _, tab := range Tabs {
		id, ok := sheetIDs[tab]
		if !ok {
			continue
		}
		requests = append(requests, formatTab(tab, id)...)
	}
	if len(requests) == 0 {
		return nil
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

func tabRange(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", tab, cells)
}

// tabValues renders one tab.
func tabValues(tab string, data TabData) [][]any {
	switch tab {
	case TabSummary:
		return summaryValues(data.Summary)
	case TabHistory:
		values := [][]any{{"Version", "Type", "Created", "Created By", "Amendment", "Current"}}
		for _, h := range data.History {
			values = append(values, []any{
				h.Version,
				string(h.VersionType),
				h.CreatedAt.Format(timestampLayout),
				h.CreatedByName,
				h.AmendmentTitle,
				yesNo(h.IsCurrent),
			})
		}
		return values
	case TabAmendments:
		values := [][]any{{"Created", "Title", "Type", "Status", "Details", "Updated"}}
		for _, a := range data.Amendments {
			values = append(values, []any{
				a.CreatedAt.Format(timestampLayout),
				a.Title,
				string(a.AddendumType),
				string(a.Status),
				a.Details,
				a.UpdatedAt.Format(timestampLayout),
			})
		}
		return values
	case TabStatusChanges:
		values := [][]any{{"Changed At", "Amendment", "From", "To", "Actor"}}
		for _, c := range data.StatusChanges {
			from := string(c.From)
			if from == "" {
				from = "(created)"
			}
			values = append(values, []any{
				c.ChangedAt.Format(timestampLayout),
				c.AmendmentTitle,
				from,
				string(c.To),
				c.Actor,
			})
		}
		return values
	}
	return nil
}

func summaryValues(s SummaryRow) [][]any {
	closing := ""
	if !s.ClosingDate.IsZero() {
		closing = s.ClosingDate.Format(dateLayout)
	}

	return [][]any{
		{"Contract Amendment Report", s.PropertyAddress},
		{}, // Empty row
		{"Contract ID", s.ContractID},
		{"Buyer", s.BuyerName},
		{"Seller", s.SellerName},
		{"Purchase Price", s.PurchasePrice.InexactFloat64()},
		{"Earnest Money", s.EarnestMoney.InexactFloat64()},
		{"Closing Date", closing},
		{"Current Version", s.CurrentVersion},
		{"Pending Amendments", s.PendingAmendments},
		{"Exported At", s.ExportedAt.Format(timestampLayout)},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
