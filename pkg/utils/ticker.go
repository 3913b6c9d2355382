package utils

import (
	"strings"
	"unicode"
)

// Ticker length bounds accepted for quote lookup.
const (
	MinTickerLen = 1
	MaxTickerLen = 6
)

// NormalizeTicker uppercases a ticker and drops a leading "$" (common in
// AI output). Whitespace is left alone so padded tokens still fail
// IsValidTicker.
func NormalizeTicker(ticker string) string {
	return strings.TrimPrefix(strings.ToUpper(ticker), "$")
}

// IsValidTicker reports whether symbol is a plausible stock ticker:
// 1 to 6 characters drawn from A-Z, 0-9, '.' and '-'.
// Symbols produced by the analysis pipeline are filtered through this
// before any quote is requested.
func IsValidTicker(symbol string) bool {
	if len(symbol) < MinTickerLen || len(symbol) > MaxTickerLen {
		return false
	}
	for _, r := range symbol {
		if unicode.IsSpace(r) {
			return false
		}
		if !isTickerRune(r) {
			return false
		}
	}
	return true
}

func isTickerRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '-':
		return true
	}
	return false
}
