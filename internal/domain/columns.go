package domain

import (
	"fmt"
	"strings"
)

// ColumnMapping names the input columns the normalizer reads. Timestamp and
// Amount are required; Customer and Membership are optional and may be empty.
// Header matching is case-insensitive and ignores surrounding whitespace.
type ColumnMapping struct {
	Timestamp  string `json:"timestamp"`
	Amount     string `json:"amount"`
	Customer   string `json:"customer,omitempty"`
	Membership string `json:"membership,omitempty"`

	// MembershipKeyword marks a row as a member visit when the membership
	// column contains it (case-insensitive). Boolean-looking values
	// (true/yes/1) are always honored.
	MembershipKeyword string `json:"membership_keyword,omitempty"`
}

// DefaultColumnMapping matches the point-of-sale export the dashboard was built
// around: orderId, location, licensePlate, package, employee, type, time, total.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Timestamp:         "time",
		Amount:            "total",
		Customer:          "licensePlate",
		Membership:        "type",
		MembershipKeyword: "member",
	}
}

// Validate checks that the required column names are configured.
func (m ColumnMapping) Validate() error {
	if strings.TrimSpace(m.Timestamp) == "" {
		return fmt.Errorf("%w: timestamp column name is not configured", ErrMissingColumn)
	}
	if strings.TrimSpace(m.Amount) == "" {
		return fmt.Errorf("%w: amount column name is not configured", ErrMissingColumn)
	}
	return nil
}

// columnIndex holds resolved header positions; -1 means the column is absent.
type columnIndex struct {
	timestamp  int
	amount     int
	customer   int
	membership int
}

func (m ColumnMapping) resolve(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	lookup := func(name string) int {
		if strings.TrimSpace(name) == "" {
			return -1
		}
		i, ok := pos[normalizeHeader(name)]
		if !ok {
			return -1
		}
		return i
	}

	idx := columnIndex{
		timestamp:  lookup(m.Timestamp),
		amount:     lookup(m.Amount),
		customer:   lookup(m.Customer),
		membership: lookup(m.Membership),
	}

	var missing []string
	if idx.timestamp < 0 {
		missing = append(missing, m.Timestamp)
	}
	if idx.amount < 0 {
		missing = append(missing, m.Amount)
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
