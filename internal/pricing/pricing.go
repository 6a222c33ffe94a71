package pricing

import (
	"fmt"
	"math"
)

// LineItem is one priced weight at the rate captured when the item was added.
type LineItem struct {
	WeightKg       float64
	RatePerKgPaise int64
}

// Price computes the amount in paise for a weight at a per-kg rate,
// rounded half-up to whole paise.
func Price(weightKg float64, ratePerKgPaise int64) int64 {
	if weightKg <= 0 || ratePerKgPaise <= 0 {
		return 0
	}
	return int64(math.Floor(weightKg*float64(ratePerKgPaise) + 0.5))
}

// Estimate sums the line item amounts in paise.
func Estimate(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += Price(item.WeightKg, item.RatePerKgPaise)
	}
	return total
}

// FormatINR renders a paise amount as rupees with two decimals.
func FormatINR(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}
