// Package models defines the data structures shared between FinanceFlow's
// gateways and its HTTP layer.
package models

// StockData is a live quote attached to the news feed. All numbers are
// rounded to two decimals.
type StockData struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
}
