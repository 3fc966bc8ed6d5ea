package timeutil

import "time"

// YearMonthLayout is the storage format for CV entry dates ("2020-01").
const YearMonthLayout = "2006-01"

// ValidYearMonth reports whether s is a well-formed "YYYY-MM" value.
func ValidYearMonth(s string) bool {
	_, err := time.Parse(YearMonthLayout, s)
	return err == nil
}

// FormatYearMonth renders "2020-01" as "Jan 2020".
// Empty input yields "" and unparseable input is returned unchanged.
func FormatYearMonth(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2006")
}
