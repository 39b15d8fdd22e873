package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VersionType classifies a contract version for display.
type VersionType string

const (
	VersionOriginal   VersionType = "original"
	VersionAmendment  VersionType = "amendment"
	VersionCorrection VersionType = "correction"
)

// KeyTerms are the headline terms of the current contract version.
type KeyTerms struct {
	ClosingDate     time.Time
	PropertyAddress string
	BuyerName       string
	SellerName      string
	PurchasePrice   decimal.Decimal
	EarnestMoney    decimal.Decimal
}

// ContractVersion is one full revision of the contract document.
type ContractVersion struct {
	CreatedAt        time.Time
	ID               string
	ContractID       string
	VersionType      VersionType
	Content          string
	CreatedByName    string
	AmendmentID      string
	Version          int
	IsCurrentVersion bool
}

// Contract is a purchase contract with its full version history.
type Contract struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ID             string
	KeyTerms       KeyTerms
	CurrentVersion ContractVersion
	Versions       []ContractVersion
	Amendments     []ContractAmendment
}

// Validate checks the version invariants: versions run 1..n without gaps,
// exactly one is current, and it is the highest one.
func (c *Contract) Validate() error {
	if len(c.Versions) == 0 {
		return fmt.Errorf("contract %s has no versions", c.ID)
	}

	currentCount := 0
	for i, v := range c.Versions {
		if v.Version != i+1 {
			return fmt.Errorf("contract %s: version at position %d is %d, want %d", c.ID, i, v.Version, i+1)
		}
		if v.IsCurrentVersion {
			currentCount++
		}
	}

	if currentCount != 1 {
		return fmt.Errorf("contract %s: %d versions marked current, want 1", c.ID, currentCount)
	}

	last := c.Versions[len(c.Versions)-1]
	if !last.IsCurrentVersion {
		return fmt.Errorf("contract %s: current version is not the latest (v%d)", c.ID, last.Version)
	}
	if c.CurrentVersion.ID != last.ID {
		return fmt.Errorf("contract %s: current version %q does not match latest %q", c.ID, c.CurrentVersion.ID, last.ID)
	}

	return nil
}

// Amendment returns the amendment with the given id.
func (c *Contract) Amendment(id string) (ContractAmendment, bool) {
	for _, a := range c.Amendments {
		if a.ID == id {
			return a, true
		}
	}
	return ContractAmendment{}, false
}
