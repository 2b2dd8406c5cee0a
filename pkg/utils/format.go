// Package utils provides display formatting helpers for cryptodash.
package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// enUS groups integer digits the way an en-US locale does (1,234,567).
var enUS = message.NewPrinter(language.AmericanEnglish)

// FormatPrice formats a USD price ($1,234.56).
// Prices with magnitude below 1 keep 6 fractional digits; everything else uses 2.
func FormatPrice(price float64) string {
	if s, ok := nonFinite(price); ok {
		return "$" + s
	}
	places := int32(2)
	if math.Abs(price) < 1 {
		places = 6
	}
	return withSign(price < 0, "$", groupFixed(decimal.NewFromFloat(price), places))
}

// FormatPercentage formats a signed percentage change with 2 decimals.
// Non-negative values carry an explicit "+": 2.5 → "+2.50%", -1.234 → "-1.23%".
func FormatPercentage(pct float64) string {
	if s, ok := nonFinite(pct); ok {
		return s + "%"
	}
	fixed := decimal.NewFromFloat(pct).Abs().StringFixed(2)
	if pct >= 0 {
		return "+" + fixed + "%"
	}
	return "-" + fixed + "%"
}

// FormatMarketCap abbreviates a USD magnitude with T/B/M suffixes.
// Tier thresholds are inclusive at the lower bound; values below one million
// are printed in full with digit grouping.
//
//	1_500_000_000_000 → "$1.50T"
//	2_300_000_000     → "$2.30B"
//	999_999           → "$999,999"
func FormatMarketCap(value float64) string {
	if s, ok := nonFinite(value); ok {
		return "$" + s
	}

	d := decimal.NewFromFloat(value)
	switch {
	case value >= 1e12:
		return "$" + d.Div(decimal.New(1, 12)).StringFixed(2) + "T"
	case value >= 1e9:
		return "$" + d.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case value >= 1e6:
		return "$" + d.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	}
	return withSign(value < 0, "$", groupFixed(d, 0))
}

// FormatVolume formats a 24h trading volume. It shares the market cap tiers.
func FormatVolume(value float64) string {
	return FormatMarketCap(value)
}

// groupFixed rounds |d| half away from zero to places digits and groups the
// integer part with commas.
func groupFixed(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	n, err := decimal.NewFromString(intPart)
	if err != nil || !n.IsInteger() {
		return fixed
	}

	var grouped string
	if n.LessThan(decimal.New(1, 18)) {
		grouped = enUS.Sprintf("%d", n.IntPart())
	} else {
		grouped = groupDigits(intPart)
	}
	if frac == "" {
		return grouped
	}
	return grouped + "." + frac
}

// groupDigits inserts thousands separators into a plain digit string.
// Only used for magnitudes that overflow int64.
func groupDigits(digits string) string {
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

func withSign(negative bool, prefix, body string) string {
	if negative && strings.Trim(body, "0.,") != "" {
		return "-" + prefix + body
	}
	return prefix + body
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}
