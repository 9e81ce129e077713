package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// CellKey identifies a (weekday, hour-of-day) cell in civil time.
type CellKey struct {
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
}

// KeyOf returns the cell a timestamp falls in, using the timestamp's location.
func KeyOf(t time.Time) CellKey {
	return CellKey{Weekday: t.Weekday(), Hour: t.Hour()}
}

func (k CellKey) compare(o CellKey) int {
	if c := cmp.Compare(k.Weekday, o.Weekday); c != 0 {
		return c
	}
	return cmp.Compare(k.Hour, o.Hour)
}

// HourlyBucket counts transactions and revenue for one cell over a whole dataset.
type HourlyBucket struct {
	Key    CellKey         `json:"key"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// BucketTransactions groups transactions by cell, ordered by weekday then hour.
// Cells with no transactions are omitted.
func BucketTransactions(txs []Transaction) []HourlyBucket {
	byKey := make(map[CellKey]*HourlyBucket)
	for _, tx := range txs {
		k := KeyOf(tx.Timestamp)
		b, ok := byKey[k]
		if !ok {
			b = &HourlyBucket{Key: k}
			byKey[k] = b
		}
		b.Count++
		b.Amount = b.Amount.Add(tx.Amount)
	}
	out := make([]HourlyBucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b HourlyBucket) int { return a.Key.compare(b.Key) })
	return out
}

// CellStats summarizes one cell across every date the dataset observed for it.
// Dates on which the cell had no transactions do not contribute zeros.
type CellStats struct {
	Key           CellKey `json:"key"`
	Observations  int     `json:"observations"`
	TotalCount    int     `json:"total_count"`
	TotalAmount   float64 `json:"total_amount"`
	MeanCount     float64 `json:"mean_count"`
	MedianCount   float64 `json:"median_count"`
	VarianceCount float64 `json:"variance_count"`
	MeanAmount    float64 `json:"mean_amount"`
}

// BaselineProfile is the historical demand pattern keyed by cell.
type BaselineProfile struct {
	cells map[CellKey]CellStats
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

type dailyCell struct {
	count  int
	amount decimal.Decimal
}

// BuildBaseline derives per-cell statistics. Each (date, cell) pair with at
// least one transaction is one observation.
func BuildBaseline(txs []Transaction) BaselineProfile {
	perCell := make(map[CellKey]map[civilDate]*dailyCell)
	for _, tx := range txs {
		k := KeyOf(tx.Timestamp)
		y, m, d := tx.Timestamp.Date()
		date := civilDate{y, m, d}
		days, ok := perCell[k]
		if !ok {
			days = make(map[civilDate]*dailyCell)
			perCell[k] = days
		}
		dc, ok := days[date]
		if !ok {
			dc = &dailyCell{}
			days[date] = dc
		}
		dc.count++
		dc.amount = dc.amount.Add(tx.Amount)
	}

	cells := make(map[CellKey]CellStats, len(perCell))
	for k, days := range perCell {
		counts := make([]float64, 0, len(days))
		total := decimal.Zero
		n := 0
		for _, dc := range days {
			counts = append(counts, float64(dc.count))
			total = total.Add(dc.amount)
			n += dc.count
		}
		obs := float64(len(days))
		totalAmount := total.InexactFloat64()
		cells[k] = CellStats{
			Key:           k,
			Observations:  len(days),
			TotalCount:    n,
			TotalAmount:   totalAmount,
			MeanCount:     float64(n) / obs,
			MedianCount:   median(counts),
			VarianceCount: variance(counts),
			MeanAmount:    totalAmount / obs,
		}
	}
	return BaselineProfile{cells: cells}
}

// Cell returns the statistics for k and whether the cell was ever observed.
func (p BaselineProfile) Cell(k CellKey) (CellStats, bool) {
	c, ok := p.cells[k]
	return c, ok
}

// Len returns the number of observed cells.
func (p BaselineProfile) Len() int {
	return len(p.cells)
}

// Cells returns all observed cells ordered by weekday then hour.
func (p BaselineProfile) Cells() []CellStats {
	out := make([]CellStats, 0, len(p.cells))
	for _, c := range p.cells {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b CellStats) int { return a.Key.compare(b.Key) })
	return out
}

// GlobalMean is the unweighted mean of every observed cell's MeanCount. It is
// the fallback baseline for cells with no history.
func (p BaselineProfile) GlobalMean() (float64, bool) {
	if len(p.cells) == 0 {
		return 0, false
	}
	var sum float64
	for _, c := range p.cells {
		sum += c.MeanCount
	}
	return sum / float64(len(p.cells)), true
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := slices.Clone(xs)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// variance is the population variance of xs.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}
