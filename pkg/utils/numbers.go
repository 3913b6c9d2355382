// Package utils provides common utility functions for FinanceFlow.
package utils

import "math"

// Round2 rounds v to 2 decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
