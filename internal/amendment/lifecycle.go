package amendment

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/model"
	"github.com/google/uuid"
)

// Title names an amendment after its addendum type.
func Title(info model.AddendumTypeInfo) string {
	label := strings.TrimSpace(info.Label)
	if label == "" {
		label = strings.ReplaceAll(string(info.Type), "_", " ")
	}
	if strings.HasSuffix(strings.ToLower(label), "addendum") {
		return label
	}
	return label + " Addendum"
}

// NextVersion builds the version an approved amendment produces: the next
// number, marked current, with the amendment appended to the current text.
func NextVersion(contract *model.Contract, a model.ContractAmendment, at time.Time, by string) (model.ContractVersion, error) {
	if contract == nil || len(contract.Versions) == 0 {
		return model.ContractVersion{}, fmt.Errorf("contract has no versions")
	}
	if a.ContractID != "" && a.ContractID != contract.ID {
		return model.ContractVersion{}, fmt.Errorf("amendment %s belongs to contract %s, not %s", a.ID, a.ContractID, contract.ID)
	}

	latest := contract.Versions[len(contract.Versions)-1]

	content := latest.Content
	if body := strings.TrimSpace(a.Content); body != "" {
		if content != "" {
			content += "\n\n"
		}
		content += body
	}

	return model.ContractVersion{
		ID:               uuid.NewString(),
		ContractID:       contract.ID,
		Version:          latest.Version + 1,
		VersionType:      model.VersionAmendment,
		Content:          content,
		CreatedAt:        at,
		CreatedByName:    by,
		IsCurrentVersion: true,
		AmendmentID:      a.ID,
	}, nil
}

// ApplyKeyTerms returns the terms after an approved amendment takes effect
// and whether anything changed. Values that were not normalized are left
// alone.
func ApplyKeyTerms(terms model.KeyTerms, a model.ContractAmendment) (model.KeyTerms, bool) {
	switch a.AddendumType {
	case model.AddendumPriceReduction:
		if v, ok := a.Details["new_purchase_price"]; ok && v.Kind == model.FieldCurrency && !v.IsEmpty() {
			if !terms.PurchasePrice.Equal(v.Amount) {
				terms.PurchasePrice = v.Amount
				return terms, true
			}
		}
	case model.AddendumClosingExtension:
		if v, ok := a.Details["new_closing_date"]; ok && v.Kind == model.FieldDate && v.Date != nil {
			if !terms.ClosingDate.Equal(*v.Date) {
				terms.ClosingDate = *v.Date
				return terms, true
			}
		}
	case model.AddendumEarnestMoney:
		if v, ok := a.Details["new_amount"]; ok && v.Kind == model.FieldCurrency && !v.IsEmpty() {
			if !terms.EarnestMoney.Equal(v.Amount) {
				terms.EarnestMoney = v.Amount
				return terms, true
			}
		}
	}
	return terms, false
}
