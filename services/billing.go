package services

import (
	"time"

	"github.com/shopspring/decimal"

	"inmoback/models"
)

// Money arithmetic is done in decimals and rounded half-up to 2 decimal
// places at each published step: the daily rate first, then the final
// charge. The rounding rule is a fixed point of the test suite.
const moneyPrecision = 2

// round2 applies the ledger's rounding rule.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPrecision)
}

// daysRemaining counts whole days from now until end. Partially elapsed
// days do not earn credit; 0 or negative means the period is spent.
func daysRemaining(now, end time.Time) int {
	if !end.After(now) {
		return 0
	}
	return int(end.Sub(now).Hours() / 24)
}

// prorationCharge computes the amount to charge when switching from
// currentPlan to newPlan mid-cycle. Unused days of an annual cycle are
// credited against the new plan's price; monthly cycles earn no credit and
// the full new price is charged. The result is never negative.
func prorationCharge(currentPlan, newPlan *models.SubscriptionPlan, now, endDate time.Time) float64 {
	days := daysRemaining(now, endDate)
	if days <= 0 || !currentPlan.IsAnnual() {
		return newPlan.Price
	}

	dailyRate := round2(decimal.NewFromFloat(currentPlan.Price).
		Div(decimal.NewFromInt(int64(currentPlan.BillingCycleDays))))
	credit := dailyRate.Mul(decimal.NewFromInt(int64(days)))

	charge := round2(decimal.NewFromFloat(newPlan.Price).Sub(credit))
	if charge.IsNegative() {
		return 0
	}
	f, _ := charge.Float64()
	return f
}

// commissionAmount computes saleAmount × pct / 100 under the ledger
// rounding rule.
func commissionAmount(saleAmount, pct float64) float64 {
	amount := round2(decimal.NewFromFloat(saleAmount).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)))
	f, _ := amount.Float64()
	return f
}

// cycleEnd returns the end of a billing period of cycleDays starting at from.
func cycleEnd(from time.Time, cycleDays int) time.Time {
	return from.AddDate(0, 0, cycleDays)
}
