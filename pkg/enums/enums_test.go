package enums

import "testing"

func TestOrderStatusAdjacency(t *testing.T) {
	legal := []struct{ from, to OrderStatus }{
		{OrderStatusPlaced, OrderStatusAccepted},
		{OrderStatusAccepted, OrderStatusPreparing},
		{OrderStatusPreparing, OrderStatusReadyForPickup},
		{OrderStatusReadyForPickup, OrderStatusAssigned},
		{OrderStatusAssigned, OrderStatusPickedUp},
		{OrderStatusPickedUp, OrderStatusDelivered},
		{OrderStatusPlaced, OrderStatusCancelled},
		{OrderStatusPickedUp, OrderStatusCancelled},
	}
	for _, tc := range legal {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to OrderStatus }{
		{OrderStatusPlaced, OrderStatusDelivered},
		{OrderStatusPlaced, OrderStatusPreparing},
		{OrderStatusAccepted, OrderStatusReadyForPickup},
		{OrderStatusDelivered, OrderStatusCancelled},
		{OrderStatusCancelled, OrderStatusAccepted},
		{OrderStatusDelivered, OrderStatusPlaced},
	}
	for _, tc := range illegal {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestOrderStatusSellerTargets(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusAccepted, OrderStatusPreparing, OrderStatusReadyForPickup, OrderStatusCancelled} {
		if !s.SellerMayTarget() {
			t.Fatalf("seller should be able to target %s", s)
		}
	}
	for _, s := range []OrderStatus{OrderStatusPlaced, OrderStatusAssigned, OrderStatusPickedUp, OrderStatusDelivered} {
		if s.SellerMayTarget() {
			t.Fatalf("seller should not be able to target %s", s)
		}
	}
}

func TestDeliveryStatusAdjacency(t *testing.T) {
	if !DeliveryStatusAvailable.CanTransition(DeliveryStatusAssigned) {
		t.Fatal("available -> assigned should be legal")
	}
	if !DeliveryStatusAssigned.CanTransition(DeliveryStatusPickedUp) {
		t.Fatal("assigned -> picked_up should be legal")
	}
	if !DeliveryStatusPickedUp.CanTransition(DeliveryStatusDelivered) {
		t.Fatal("picked_up -> delivered should be legal")
	}
	if DeliveryStatusAvailable.CanTransition(DeliveryStatusDelivered) {
		t.Fatal("available -> delivered should be illegal")
	}
	if DeliveryStatusDelivered.CanTransition(DeliveryStatusAvailable) {
		t.Fatal("delivered is terminal")
	}
}

func TestCashCollectionStatusAdjacency(t *testing.T) {
	if !CashCollectionStatusPending.CanTransition(CashCollectionStatusCollected) {
		t.Fatal("pending -> collected should be legal")
	}
	if !CashCollectionStatusCollected.CanTransition(CashCollectionStatusConfirmed) {
		t.Fatal("collected -> confirmed should be legal")
	}
	if CashCollectionStatusPending.CanTransition(CashCollectionStatusConfirmed) {
		t.Fatal("pending -> confirmed skips a step")
	}
}

func TestParsers(t *testing.T) {
	if _, err := ParseOrderStatus("ready_for_pickup"); err != nil {
		t.Fatalf("parse order status: %v", err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown order status")
	}
	if _, err := ParseUserRole("driver"); err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if _, err := ParseWalletEntryType("reward"); err != nil {
		t.Fatalf("parse wallet entry type: %v", err)
	}
	if _, err := ParseTopupCodeStatus("redeemed"); err != nil {
		t.Fatalf("parse code status: %v", err)
	}
	if _, err := ParseSettlementStatus("paid"); err != nil {
		t.Fatalf("parse settlement status: %v", err)
	}
	if _, err := ParseCashCollectionStatus("confirmed"); err != nil {
		t.Fatalf("parse cash status: %v", err)
	}
	if _, err := ParseDeliveryStatus("claimed"); err == nil {
		t.Fatal("expected error for unknown delivery status")
	}
}
