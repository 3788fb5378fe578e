package settlements

import (
	"github.com/shopspring/decimal"
)

// Fees is the configured split policy: a proportional platform cut plus a
// flat driver fee.
type Fees struct {
	PlatformRate   decimal.Decimal
	DriverFeeCents int64
}

// Split is the three-way division of an order's cash. The components
// always sum exactly to the order amount; any rounding remainder lands on
// the seller side.
type Split struct {
	PlatformFeeCents  int64
	DriverFeeCents    int64
	SellerAmountCents int64
}

// ComputeSplit divides orderAmountCents between platform, driver and
// seller. The platform fee is rounded half-up to a whole cent and the
// flat driver fee is clamped so it never exceeds what is left after the
// platform's cut.
func ComputeSplit(orderAmountCents int64, fees Fees) Split {
	amount := decimal.NewFromInt(orderAmountCents)
	platform := amount.Mul(fees.PlatformRate).Round(0).IntPart()
	if platform > orderAmountCents {
		platform = orderAmountCents
	}
	if platform < 0 {
		platform = 0
	}

	driver := fees.DriverFeeCents
	if remaining := orderAmountCents - platform; driver > remaining {
		driver = remaining
	}
	if driver < 0 {
		driver = 0
	}

	return Split{
		PlatformFeeCents:  platform,
		DriverFeeCents:    driver,
		SellerAmountCents: orderAmountCents - platform - driver,
	}
}
