package model

import "time"

// DealReport is the input to the deal-history export generators.
type DealReport struct {
	Seller      Profile
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalEarned float64
	Deals       []Deal
}
