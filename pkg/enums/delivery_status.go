package enums

import "fmt"

// DeliveryStatus maps to the delivery_status_enum enum in Postgres.
type DeliveryStatus string

const (
	DeliveryStatusAvailable DeliveryStatus = "available"
	DeliveryStatusAssigned  DeliveryStatus = "assigned"
	DeliveryStatusPickedUp  DeliveryStatus = "picked_up"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusAvailable,
	DeliveryStatusAssigned,
	DeliveryStatusPickedUp,
	DeliveryStatusDelivered,
}

var deliveryNextStatus = map[DeliveryStatus]DeliveryStatus{
	DeliveryStatusAvailable: DeliveryStatusAssigned,
	DeliveryStatusAssigned:  DeliveryStatusPickedUp,
	DeliveryStatusPickedUp:  DeliveryStatusDelivered,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical delivery status enum.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the delivery lifecycle has ended.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered
}

// CanTransition reports whether moving from s to next is legal. The
// delivery lifecycle is strictly linear.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	return deliveryNextStatus[s] == next
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
