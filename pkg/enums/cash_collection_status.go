package enums

import "fmt"

// CashCollectionStatus maps to the cash_collection_status_enum enum in Postgres.
type CashCollectionStatus string

const (
	CashCollectionStatusPending   CashCollectionStatus = "pending"
	CashCollectionStatusCollected CashCollectionStatus = "collected"
	CashCollectionStatusConfirmed CashCollectionStatus = "confirmed"
)

var validCashCollectionStatuses = []CashCollectionStatus{
	CashCollectionStatusPending,
	CashCollectionStatusCollected,
	CashCollectionStatusConfirmed,
}

var cashCollectionNextStatus = map[CashCollectionStatus]CashCollectionStatus{
	CashCollectionStatusPending:   CashCollectionStatusCollected,
	CashCollectionStatusCollected: CashCollectionStatusConfirmed,
}

// String implements fmt.Stringer.
func (s CashCollectionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical cash collection status enum.
func (s CashCollectionStatus) IsValid() bool {
	for _, candidate := range validCashCollectionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from s to next is legal. The
// reconciliation lifecycle is strictly linear.
func (s CashCollectionStatus) CanTransition(next CashCollectionStatus) bool {
	return cashCollectionNextStatus[s] == next
}

// ParseCashCollectionStatus converts raw input into a CashCollectionStatus.
func ParseCashCollectionStatus(value string) (CashCollectionStatus, error) {
	for _, candidate := range validCashCollectionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cash collection status %q", value)
}
