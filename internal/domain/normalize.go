package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// amountCleanRe strips currency symbols, thousands separators and stray
	// text from the amount column, e.g. "$1,234.50" -> "1234.50".
	amountCleanRe = regexp.MustCompile(`[^0-9.\-]`)

	// offsetLayouts carry an explicit UTC offset and identify a single instant.
	offsetLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04Z07:00",
	}

	// civilLayouts are naive wall-clock readings localized to the civil zone.
	civilLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006 3:04:05 PM",
	}
)

var (
	errEmptyTimestamp   = errors.New("empty timestamp")
	errUnknownLayout    = errors.New("unrecognized timestamp format")
	errNonexistentLocal = errors.New("nonexistent local time (DST gap)")
	errAmbiguousLocal   = errors.New("ambiguous local time (DST overlap)")
	errNonNumericAmount = errors.New("non-numeric amount")
)

// NormalizeResult is the outcome of normalizing one uploaded table. Partial
// success is the normal case: Rejected lists every row that was excluded.
type NormalizeResult struct {
	Transactions []Transaction
	Rejected     []RowError
}

// Rows returns the number of data rows examined.
func (r NormalizeResult) Rows() int {
	return len(r.Transactions) + len(r.Rejected)
}

// Normalize converts raw rows into transactions in the civil timezone loc.
// It fails only for structural problems (no header, no rows, unmapped
// required columns); bad individual rows are rejected and reported.
func Normalize(table Table, mapping ColumnMapping, loc *time.Location) (NormalizeResult, error) {
	if loc == nil {
		return NormalizeResult{}, errors.New("normalize: civil timezone is not set")
	}
	if len(table.Header) == 0 {
		return NormalizeResult{}, fmt.Errorf("%w: no header row", ErrEmptyInput)
	}
	if len(table.Rows) == 0 {
		return NormalizeResult{}, fmt.Errorf("%w: no data rows", ErrEmptyInput)
	}
	if err := mapping.Validate(); err != nil {
		return NormalizeResult{}, err
	}
	idx, err := mapping.resolve(table.Header)
	if err != nil {
		return NormalizeResult{}, err
	}

	res := NormalizeResult{Transactions: make([]Transaction, 0, len(table.Rows))}
	for _, row := range table.Rows {
		tx, rowErr := normalizeRow(row, idx, mapping.MembershipKeyword, loc)
		if rowErr != nil {
			res.Rejected = append(res.Rejected, *rowErr)
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

func normalizeRow(row Row, idx columnIndex, keyword string, loc *time.Location) (Transaction, *RowError) {
	rawTS, ok := field(row, idx.timestamp)
	if !ok {
		return Transaction{}, &RowError{Line: row.Line, Field: "row", Reason: "too few fields"}
	}
	ts, err := ParseCivilTimestamp(rawTS, loc)
	if err != nil {
		return Transaction{}, &RowError{Line: row.Line, Field: "timestamp", Value: rawTS, Reason: err.Error()}
	}

	rawAmount, ok := field(row, idx.amount)
	if !ok {
		return Transaction{}, &RowError{Line: row.Line, Field: "row", Reason: "too few fields"}
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return Transaction{}, &RowError{Line: row.Line, Field: "amount", Value: rawAmount, Reason: err.Error()}
	}

	tx := Transaction{Line: row.Line, Timestamp: ts, Amount: amount}
	if v, ok := field(row, idx.customer); ok {
		tx.CustomerID = normalizeCustomerID(v)
	}
	if v, ok := field(row, idx.membership); ok {
		tx.Member = isMember(v, keyword)
	}
	return tx, nil
}

func field(row Row, i int) (string, bool) {
	if i < 0 || i >= len(row.Values) {
		return "", false
	}
	return strings.TrimSpace(row.Values[i]), true
}

// ParseCivilTimestamp parses s and returns the instant in loc. Values with an
// explicit offset are converted; naive values are read as wall-clock time in
// loc and rejected when that wall time is skipped or repeated by a DST change.
func ParseCivilTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range civilLayouts {
		wall, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return localize(wall, loc)
	}
	return time.Time{}, errUnknownLayout
}

// localize resolves a wall-clock reading (parsed as UTC) to the unique instant
// in loc showing that reading.
func localize(wall time.Time, loc *time.Location) (time.Time, error) {
	var matches []time.Time
	for _, off := range nearbyOffsets(wall, loc) {
		t := time.Unix(wall.Unix()-int64(off), int64(wall.Nanosecond())).In(loc)
		if !sameWallClock(t, wall) {
			continue
		}
		if len(matches) == 0 || !matches[0].Equal(t) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return time.Time{}, errNonexistentLocal
	case 1:
		return matches[0], nil
	default:
		return time.Time{}, errAmbiguousLocal
	}
}

// nearbyOffsets returns the distinct UTC offsets loc uses within a day of wall.
func nearbyOffsets(wall time.Time, loc *time.Location) []int {
	var offs []int
	for _, shift := range []time.Duration{-24 * time.Hour, 0, 24 * time.Hour} {
		_, off := wall.Add(shift).In(loc).Zone()
		seen := false
		for _, o := range offs {
			if o == off {
				seen = true
				break
			}
		}
		if !seen {
			offs = append(offs, off)
		}
	}
	return offs
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ah, amin, as := a.Clock()
	bh, bmin, bs := b.Clock()
	return ay == by && am == bm && ad == bd && ah == bh && amin == bmin && as == bs
}

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountCleanRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, errNonNumericAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errNonNumericAmount
	}
	return d, nil
}

// normalizeCustomerID treats blank and "UNKNOWN" placeholders as absent.
func normalizeCustomerID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}

func isMember(value, keyword string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "true", "yes", "y", "1":
		return true
	case "", "false", "no", "n", "0":
		return false
	}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	return keyword != "" && strings.Contains(v, keyword)
}
