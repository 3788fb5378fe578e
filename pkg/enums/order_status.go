package enums

import "fmt"

// OrderStatus maps to the order_status_enum enum in Postgres.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusAccepted,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusAssigned,
	OrderStatusPickedUp,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderNextStatus holds the forward adjacency for the order lifecycle.
// Cancellation is handled separately: it is reachable from any
// non-terminal state.
var orderNextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPlaced:         OrderStatusAccepted,
	OrderStatusAccepted:       OrderStatusPreparing,
	OrderStatusPreparing:      OrderStatusReadyForPickup,
	OrderStatusReadyForPickup: OrderStatusAssigned,
	OrderStatusAssigned:       OrderStatusPickedUp,
	OrderStatusPickedUp:       OrderStatusDelivered,
}

// sellerOrderTargets is the subset of statuses a seller may move an order to.
var sellerOrderTargets = map[OrderStatus]bool{
	OrderStatusAccepted:       true,
	OrderStatusPreparing:      true,
	OrderStatusReadyForPickup: true,
	OrderStatusCancelled:      true,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition reports whether moving from s to next follows the
// lifecycle adjacency table. No steps may be skipped and terminal
// states have no successors.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderNextStatus[s] == next
}

// SellerMayTarget reports whether a seller is permitted to move an order
// to the given status at all.
func (s OrderStatus) SellerMayTarget() bool {
	return sellerOrderTargets[s]
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
