package domain

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders minor currency units with thousands separators, e.g. 105000 -> "105,000".
func FormatAmount(amount int64) string {
	return amountPrinter.Sprintf("%d", amount)
}

// Abs returns the magnitude of a balance. math.MinInt64 saturates to math.MaxInt64.
func Abs(amount int64) int64 {
	if amount == math.MinInt64 {
		return math.MaxInt64
	}
	if amount < 0 {
		return -amount
	}
	return amount
}
