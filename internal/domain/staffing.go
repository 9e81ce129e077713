package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Threshold maps demand up to and including UpTo onto Staff. An Open threshold
// has no upper bound and must be last.
type Threshold struct {
	UpTo  float64 `json:"up_to,omitempty"`
	Open  bool    `json:"open,omitempty"`
	Staff int     `json:"staff"`
}

// ThresholdTable is an ordered list of demand thresholds.
type ThresholdTable []Threshold

// DefaultThresholds mirrors the site's original staffing rules.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		{UpTo: 20, Staff: 2},
		{UpTo: 40, Staff: 3},
		{UpTo: 60, Staff: 4},
		{UpTo: 80, Staff: 5},
		{Open: true, Staff: 6},
	}
}

// ParseThresholds reads a table written as "bound:staff" pairs separated by
// commas, with "*" as the open-ended final bound: "20:2,40:3,*:4".
func ParseThresholds(s string) (ThresholdTable, error) {
	var table ThresholdTable
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bound, staff, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q is not bound:staff", ErrInvalidThresholds, part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(staff))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q has non-integer staff", ErrInvalidThresholds, part)
		}
		th := Threshold{Staff: n}
		if b := strings.TrimSpace(bound); b == "*" {
			th.Open = true
		} else {
			v, err := strconv.ParseFloat(b, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: entry %q has non-numeric bound", ErrInvalidThresholds, part)
			}
			th.UpTo = v
		}
		table = append(table, th)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate requires strictly increasing bounds, non-decreasing non-negative
// staff counts, and a final open-ended entry so every demand is covered.
func (t ThresholdTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: table is empty", ErrInvalidThresholds)
	}
	for i, th := range t {
		if th.Staff < 0 {
			return fmt.Errorf("%w: entry %d has negative staff %d", ErrInvalidThresholds, i+1, th.Staff)
		}
		if th.Open && i != len(t)-1 {
			return fmt.Errorf("%w: open-ended entry must be last", ErrInvalidThresholds)
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		if !th.Open && th.UpTo <= prev.UpTo {
			return fmt.Errorf("%w: bound %v does not exceed previous bound %v", ErrInvalidThresholds, th.UpTo, prev.UpTo)
		}
		if th.Staff < prev.Staff {
			return fmt.Errorf("%w: staff %d is lower than previous %d", ErrInvalidThresholds, th.Staff, prev.Staff)
		}
	}
	if !t[len(t)-1].Open {
		return fmt.Errorf("%w: last entry must be open-ended (*)", ErrInvalidThresholds)
	}
	return nil
}

// StaffFor returns the staff count for demand. The table must be valid.
func (t ThresholdTable) StaffFor(demand float64) int {
	for _, th := range t {
		if th.Open || demand <= th.UpTo {
			return th.Staff
		}
	}
	return t[len(t)-1].Staff
}

func (t ThresholdTable) String() string {
	parts := make([]string, len(t))
	for i, th := range t {
		bound := "*"
		if !th.Open {
			bound = strconv.FormatFloat(th.UpTo, 'f', -1, 64)
		}
		parts[i] = bound + ":" + strconv.Itoa(th.Staff)
	}
	return strings.Join(parts, ",")
}

// StaffingSlot is the recommendation for one operating hour.
type StaffingSlot struct {
	Hour   int     `json:"hour"`
	Demand float64 `json:"demand"`
	Staff  int     `json:"staff"`
}

// StaffingPlan covers the operating hours of the target date.
type StaffingPlan struct {
	Slots      []StaffingSlot `json:"slots"`
	PeakStaff  int            `json:"peak_staff"`
	StaffHours int            `json:"staff_hours"`
}

// Slot returns the recommendation for hour h.
func (p StaffingPlan) Slot(h int) (StaffingSlot, bool) {
	for _, s := range p.Slots {
		if s.Hour == h {
			return s, true
		}
	}
	return StaffingSlot{}, false
}

// PlanStaffing maps each operating hour's demand through the threshold table.
func PlanStaffing(f AdjustedForecast, table ThresholdTable, hours OperatingHours) StaffingPlan {
	var plan StaffingPlan
	for h := hours.Open; h < hours.Close; h++ {
		hf, ok := f.Hour(h)
		if !ok || hf.Absent {
			continue
		}
		n := table.StaffFor(hf.Demand)
		plan.Slots = append(plan.Slots, StaffingSlot{Hour: h, Demand: hf.Demand, Staff: n})
		plan.PeakStaff = max(plan.PeakStaff, n)
		plan.StaffHours += n
	}
	return plan
}
