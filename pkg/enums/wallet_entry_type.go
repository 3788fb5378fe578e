package enums

import "fmt"

// WalletEntryType maps to the wallet_entry_type_enum enum in Postgres.
type WalletEntryType string

const (
	WalletEntryTypeTopup           WalletEntryType = "topup"
	WalletEntryTypeSpend           WalletEntryType = "spend"
	WalletEntryTypeRefund          WalletEntryType = "refund"
	WalletEntryTypeAdminAdjustment WalletEntryType = "admin_adjustment"
	WalletEntryTypeReward          WalletEntryType = "reward"
)

var validWalletEntryTypes = []WalletEntryType{
	WalletEntryTypeTopup,
	WalletEntryTypeSpend,
	WalletEntryTypeRefund,
	WalletEntryTypeAdminAdjustment,
	WalletEntryTypeReward,
}

// String implements fmt.Stringer.
func (t WalletEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical wallet entry type enum.
func (t WalletEntryType) IsValid() bool {
	for _, candidate := range validWalletEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletEntryType converts raw input into a WalletEntryType.
func ParseWalletEntryType(value string) (WalletEntryType, error) {
	for _, candidate := range validWalletEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry type %q", value)
}
