package model

import "github.com/shopspring/decimal"

// FormatMoney renders an amount in dollars with two decimals.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatDate renders an optional timestamp as a date, or the placeholder
// when the timestamp is absent.
func FormatDate(t *Timestamp, placeholder string) string {
	if t == nil || t.IsZero() {
		return placeholder
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateTime renders a timestamp with date and time of day.
func FormatDateTime(t Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
