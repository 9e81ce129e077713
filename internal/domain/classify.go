package domain

import (
	"cmp"
	"slices"
	"time"
)

// CustomerLabel is the per-visit classification.
type CustomerLabel string

const (
	LabelNew       CustomerLabel = "new"
	LabelReturning CustomerLabel = "returning"
	LabelMember    CustomerLabel = "member"
	LabelUnknown   CustomerLabel = "unknown"
)

// Classification labels one transaction. VisitNumber is the 1-based position of
// this visit in the customer's chronological history (0 when unidentified).
type Classification struct {
	Line        int           `json:"line"`
	CustomerID  string        `json:"customer_id,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Label       CustomerLabel `json:"label"`
	VisitNumber int           `json:"visit_number"`
	FirstVisit  bool          `json:"first_visit"`
	Member      bool          `json:"member"`
}

// Classify labels every transaction. The result is index-aligned with txs.
//
// A customer's earliest visit in the dataset is "new" and later visits are
// "returning"; a member flag on the row overrides either to "member". Rows
// without a customer identifier are "unknown" and never count toward new or
// returning totals. Ties on timestamp are broken by input order.
func Classify(txs []Transaction) []Classification {
	order := make([]int, len(txs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return txs[a].Timestamp.Compare(txs[b].Timestamp)
	})

	out := make([]Classification, len(txs))
	visits := make(map[string]int)
	for _, i := range order {
		tx := txs[i]
		c := Classification{
			Line:       tx.Line,
			CustomerID: tx.CustomerID,
			Timestamp:  tx.Timestamp,
			Member:     tx.Member,
		}
		switch {
		case !tx.HasCustomer():
			c.Label = LabelUnknown
		default:
			visits[tx.CustomerID]++
			c.VisitNumber = visits[tx.CustomerID]
			c.FirstVisit = c.VisitNumber == 1
			switch {
			case tx.Member:
				c.Label = LabelMember
			case c.FirstVisit:
				c.Label = LabelNew
			default:
				c.Label = LabelReturning
			}
		}
		out[i] = c
	}
	return out
}

// DayCount is a count for one civil date (formatted YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CustomerSummary aggregates classifications for reporting.
type CustomerSummary struct {
	TotalVisits      int        `json:"total_visits"`
	IdentifiedVisits int        `json:"identified_visits"`
	UnknownVisits    int        `json:"unknown_visits"`
	UniqueCustomers  int        `json:"unique_customers"`
	NewCustomers     int        `json:"new_customers"`
	ReturningVisits  int        `json:"returning_visits"`
	MemberVisits     int        `json:"member_visits"`
	UniqueMembers    int        `json:"unique_members"`
	NewPerDay        []DayCount `json:"new_per_day"`
	NewByHour        [24]int    `json:"new_by_hour"`
}

// SummarizeCustomers rolls up classifications. First visits are counted as new
// customers whether or not the visit carried a member flag.
func SummarizeCustomers(cs []Classification) CustomerSummary {
	var s CustomerSummary
	s.TotalVisits = len(cs)
	members := make(map[string]struct{})
	perDay := make(map[string]int)
	for _, c := range cs {
		if c.Label == LabelUnknown {
			s.UnknownVisits++
			continue
		}
		s.IdentifiedVisits++
		if c.FirstVisit {
			s.UniqueCustomers++
			s.NewCustomers++
			perDay[c.Timestamp.Format(time.DateOnly)]++
			s.NewByHour[c.Timestamp.Hour()]++
		} else {
			s.ReturningVisits++
		}
		if c.Member {
			s.MemberVisits++
			members[c.CustomerID] = struct{}{}
		}
	}
	s.UniqueMembers = len(members)

	s.NewPerDay = make([]DayCount, 0, len(perDay))
	for d, n := range perDay {
		s.NewPerDay = append(s.NewPerDay, DayCount{Date: d, Count: n})
	}
	slices.SortFunc(s.NewPerDay, func(a, b DayCount) int { return cmp.Compare(a.Date, b.Date) })
	return s
}
