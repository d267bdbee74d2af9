package sheet

// cell.go cleans raw spreadsheet cells and parses the numeric ones.
//
// Uploaded moderation sheets are hand-edited, so numeric columns turn up with
// Excel formula prefixes, thousands separators and the odd accounting-style
// negative. ParseNumber accepts all of those and reports failure for anything
// else; callers decide what a failure means.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a plain number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseNumber converts a cell to float64.
// ok is false for empty cells and for anything that is not a number once
// currency symbols, thousands separators and accounting parentheses are
// stripped. Plain decimals ("0012.50") are scanned through pgtype.Numeric;
// pgtype does not take exponents, so "1e3" and "1.5E2" go through
// strconv.ParseFloat. Values outside float64 range are not numbers.
func ParseNumber(s string) (value float64, ok bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil || !n.Valid {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// IsBlank reports whether a cell is empty after whitespace trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// isEmptyRow reports whether every cell in row is blank.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}
