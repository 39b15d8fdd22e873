package sheets

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/amendment"
	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/shopspring/decimal"
)

// Tab titles in the exported spreadsheet.
const (
	TabSummary       = "Summary"
	TabHistory       = "Version History"
	TabAmendments    = "Amendments"
	TabStatusChanges = "Status Changes"
)

// Tabs lists every tab in export order.
var Tabs = []string{TabSummary, TabHistory, TabAmendments, TabStatusChanges}

// SummaryRow holds the contract's key terms at export time.
type SummaryRow struct {
	ClosingDate       time.Time
	ExportedAt        time.Time
	ContractID        string
	PropertyAddress   string
	BuyerName         string
	SellerName        string
	PurchasePrice     decimal.Decimal
	EarnestMoney      decimal.Decimal
	CurrentVersion    int
	PendingAmendments int
}

// HistoryRow is one row in the Version History tab.
type HistoryRow struct {
	CreatedAt      time.Time
	VersionType    model.VersionType
	CreatedByName  string
	AmendmentTitle string
	Version        int
	IsCurrent      bool
}

// AmendmentRow is one row in the Amendments tab.
type AmendmentRow struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ID           string
	Title        string
	AddendumType model.AddendumType
	Status       model.AmendmentStatus
	Details      string
}

// StatusChangeRow is one row in the Status Changes tab.
type StatusChangeRow struct {
	ChangedAt      time.Time
	AmendmentTitle string
	From           model.AmendmentStatus
	To             model.AmendmentStatus
	Actor          string
}

// TabData holds all the data for the complete spreadsheet export.
type TabData struct {
	Summary       SummaryRow
	History       []HistoryRow
	Amendments    []AmendmentRow
	StatusChanges []StatusChangeRow
}

// BuildTabData projects a contract and its amendments' status history into
// export rows. History is most recent first, amendments keep creation order
// and status changes are sorted oldest first.
func BuildTabData(contract *model.Contract, statusHistory map[string][]model.StatusChange, exportedAt time.Time) TabData {
	if contract == nil {
		return TabData{}
	}

	data := TabData{
		Summary: SummaryRow{
			ContractID:        contract.ID,
			PropertyAddress:   contract.KeyTerms.PropertyAddress,
			BuyerName:         contract.KeyTerms.BuyerName,
			SellerName:        contract.KeyTerms.SellerName,
			PurchasePrice:     contract.KeyTerms.PurchasePrice,
			EarnestMoney:      contract.KeyTerms.EarnestMoney,
			ClosingDate:       contract.KeyTerms.ClosingDate,
			CurrentVersion:    contract.CurrentVersion.Version,
			PendingAmendments: len(amendment.GetPendingAmendments(contract)),
			ExportedAt:        exportedAt,
		},
	}

	for _, entry := range amendment.GetVersionHistory(contract) {
		data.History = append(data.History, HistoryRow{
			Version:        entry.Version,
			VersionType:    entry.VersionType,
			CreatedAt:      entry.CreatedAt,
			CreatedByName:  entry.CreatedByName,
			AmendmentTitle: entry.AmendmentTitle,
			IsCurrent:      entry.IsCurrent,
		})
	}

	titles := make(map[string]string, len(contract.Amendments))
	for _, a := range contract.Amendments {
		titles[a.ID] = a.Title
		data.Amendments = append(data.Amendments, AmendmentRow{
			ID:           a.ID,
			Title:        a.Title,
			AddendumType: a.AddendumType,
			Status:       a.Status,
			Details:      formatDetails(a.Details),
			CreatedAt:    a.CreatedAt,
			UpdatedAt:    a.UpdatedAt,
		})
	}

	for id, changes := range statusHistory {
		for _, c := range changes {
			title := titles[id]
			if title == "" {
				title = id
			}
			data.StatusChanges = append(data.StatusChanges, StatusChangeRow{
				ChangedAt:      c.ChangedAt,
				AmendmentTitle: title,
				From:           c.From,
				To:             c.To,
				Actor:          c.Actor,
			})
		}
	}
	sort.SliceStable(data.StatusChanges, func(i, j int) bool {
		a, b := data.StatusChanges[i], data.StatusChanges[j]
		if !a.ChangedAt.Equal(b.ChangedAt) {
			return a.ChangedAt.Before(b.ChangedAt)
		}
		return a.AmendmentTitle < b.AmendmentTitle
	})

	return data
}

// formatDetails renders captured values as "key: value" pairs in key order.
func formatDetails(details map[string]model.FieldValue) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, details[k].String()))
	}
	return strings.Join(parts, "; ")
}
