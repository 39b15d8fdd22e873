package model

import "time"

// AmendmentStatus is the approval state of an amendment.
type AmendmentStatus string

const (
	AmendmentDraft            AmendmentStatus = "draft"
	AmendmentPendingReview    AmendmentStatus = "pending_review"
	AmendmentPendingSignature AmendmentStatus = "pending_signature"
	AmendmentApproved         AmendmentStatus = "approved"
	AmendmentRejected         AmendmentStatus = "rejected"
)

var amendmentTransitions = map[AmendmentStatus][]AmendmentStatus{
	AmendmentDraft:            {AmendmentPendingReview},
	AmendmentPendingReview:    {AmendmentPendingSignature, AmendmentRejected, AmendmentDraft},
	AmendmentPendingSignature: {AmendmentApproved, AmendmentRejected},
}

// Valid reports whether s is a known status.
func (s AmendmentStatus) Valid() bool {
	switch s {
	case AmendmentDraft, AmendmentPendingReview, AmendmentPendingSignature, AmendmentApproved, AmendmentRejected:
		return true
	}
	return false
}

// IsPending reports whether the amendment awaits review or signatures.
func (s AmendmentStatus) IsPending() bool {
	return s == AmendmentPendingReview || s == AmendmentPendingSignature
}

// IsTerminal reports whether no further transitions are allowed.
func (s AmendmentStatus) IsTerminal() bool {
	return s == AmendmentApproved || s == AmendmentRejected
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s AmendmentStatus) CanTransitionTo(next AmendmentStatus) bool {
	for _, allowed := range amendmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ContractAmendment is a tracked change request against a contract.
type ContractAmendment struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Details      map[string]FieldValue
	ID           string
	ContractID   string
	Title        string
	Status       AmendmentStatus
	AddendumType AddendumType
	Content      string
}

// VersionHistoryEntry is a display projection of a contract version.
type VersionHistoryEntry struct {
	CreatedAt      time.Time
	VersionID      string
	VersionType    VersionType
	CreatedByName  string
	AmendmentTitle string
	Version        int
	IsCurrent      bool
}

// StatusChange is one audited amendment status transition. From is empty for
// the creation entry.
type StatusChange struct {
	ChangedAt   time.Time
	AmendmentID string
	From        AmendmentStatus
	To          AmendmentStatus
	Actor       string
}
