// Package amendment derives version history and lifecycle changes from a
// contract and its amendments.
package amendment

import (
	"sort"

	"github.com/Veraticus/amendment-desk/internal/model"
)

// GetVersionHistory projects the contract's versions for display, most recent
// first. The entry for contract.CurrentVersion is marked current. Versions
// created by an amendment carry that amendment's title.
func GetVersionHistory(contract *model.Contract) []model.VersionHistoryEntry {
	if contract == nil {
		return nil
	}

	titles := make(map[string]string, len(contract.Amendments))
	for _, a := range contract.Amendments {
		titles[a.ID] = a.Title
	}

	entries := make([]model.VersionHistoryEntry, 0, len(contract.Versions))
	for _, v := range contract.Versions {
		entry := model.VersionHistoryEntry{
			VersionID:     v.ID,
			Version:       v.Version,
			VersionType:   v.VersionType,
			CreatedAt:     v.CreatedAt,
			CreatedByName: v.CreatedByName,
			IsCurrent:     v.ID == contract.CurrentVersion.ID,
		}
		if v.AmendmentID != "" {
			entry.AmendmentTitle = titles[v.AmendmentID]
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Version > entries[j].Version
	})

	return entries
}

// GetPendingAmendments returns amendments awaiting review or signatures, in
// the order the contract lists them.
func GetPendingAmendments(contract *model.Contract) []model.ContractAmendment {
	if contract == nil {
		return nil
	}

	var pending []model.ContractAmendment
	for _, a := range contract.Amendments {
		if a.Status.IsPending() {
			pending = append(pending, a)
		}
	}
	return pending
}
