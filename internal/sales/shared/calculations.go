package shared

import "github.com/shopspring/decimal"

// CalculateLineSubtotal returns quantity*unitPrice rounded to cents.
func CalculateLineSubtotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(quantity).Mul(unitPrice).Round(2)
}

// SumSubtotals totals the given subtotals, rounded to cents.
func SumSubtotals(subtotals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subtotals {
		total = total.Add(s)
	}
	return total.Round(2)
}
