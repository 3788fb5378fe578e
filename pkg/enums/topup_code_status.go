package enums

import "fmt"

// TopupCodeStatus maps to the topup_code_status_enum enum in Postgres.
type TopupCodeStatus string

const (
	TopupCodeStatusActive   TopupCodeStatus = "active"
	TopupCodeStatusRedeemed TopupCodeStatus = "redeemed"
	TopupCodeStatusVoided   TopupCodeStatus = "voided"
)

var validTopupCodeStatuses = []TopupCodeStatus{
	TopupCodeStatusActive,
	TopupCodeStatusRedeemed,
	TopupCodeStatusVoided,
}

// String implements fmt.Stringer.
func (s TopupCodeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical topup code status enum.
func (s TopupCodeStatus) IsValid() bool {
	for _, candidate := range validTopupCodeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTopupCodeStatus converts raw input into a TopupCodeStatus.
func ParseTopupCodeStatus(value string) (TopupCodeStatus, error) {
	for _, candidate := range validTopupCodeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid topup code status %q", value)
}
