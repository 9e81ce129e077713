package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table is an uploaded tabular file: one header row and string-typed data rows
// in arbitrary column order.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is a single data row. Line is the 1-based line number in the source file.
type Row struct {
	Line   int
	Values []string
}

// Transaction is a validated wash sale with its timestamp in the civil timezone.
type Transaction struct {
	Line       int             `json:"line"`
	Timestamp  time.Time       `json:"timestamp"`
	CustomerID string          `json:"customer_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Member     bool            `json:"member"`
}

// HasCustomer reports whether the transaction carries a customer identifier.
func (t Transaction) HasCustomer() bool {
	return t.CustomerID != ""
}

// UsageSummary is the equipment-wear view of the dataset.
type UsageSummary struct {
	TotalWashes   int             `json:"total_washes"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// SummarizeUsage totals washes and revenue across all valid transactions.
func SummarizeUsage(txs []Transaction) UsageSummary {
	u := UsageSummary{TotalWashes: len(txs)}
	for _, tx := range txs {
		u.TotalRevenue = u.TotalRevenue.Add(tx.Amount)
	}
	if u.TotalWashes > 0 {
		u.AverageTicket = u.TotalRevenue.Div(decimal.NewFromInt(int64(u.TotalWashes))).Round(2)
	}
	return u
}
