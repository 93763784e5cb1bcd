// Package money provides currency rounding and display helpers shared by the
// valuation engines.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Round rounds v to the nearest multiple of nearest. A non-positive nearest
// rounds to the whole unit.
func Round(v, nearest float64) float64 {
	if nearest <= 0 {
		return math.Round(v)
	}
	return math.Round(v/nearest) * nearest
}

// RoundThousand rounds v to the nearest 1,000.
func RoundThousand(v float64) float64 {
	return Round(v, 1000)
}

// Format renders v as whole US dollars with thousands separators.
func Format(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

// Percent renders a ratio as a percentage with one decimal place.
func Percent(ratio float64) string {
	return printer.Sprintf("%.1f%%", ratio*100)
}
