package domain

import "fmt"

// demandEpsilon absorbs float rounding when comparing window totals, so
// windows with equal demand keep the earliest start.
const demandEpsilon = 1e-9

// MaintenanceWindow is a contiguous block of operating hours.
type MaintenanceWindow struct {
	Start       int     `json:"start"`
	Duration    int     `json:"duration"`
	TotalDemand float64 `json:"total_demand"`
}

// End returns the exclusive end hour.
func (w MaintenanceWindow) End() int {
	return w.Start + w.Duration
}

func (w MaintenanceWindow) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.Start, w.End())
}

// SelectMaintenanceWindow returns the contiguous run of duration hours inside
// hours with the lowest total demand. The earliest start wins ties.
func SelectMaintenanceWindow(f AdjustedForecast, duration int, hours OperatingHours) (MaintenanceWindow, error) {
	if duration <= 0 {
		return MaintenanceWindow{}, fmt.Errorf("%w: duration %d must be positive", ErrNoMaintenanceWindow, duration)
	}
	if duration > hours.Len() {
		return MaintenanceWindow{}, fmt.Errorf("%w: %d hours do not fit in %s", ErrNoMaintenanceWindow, duration, hours)
	}

	var (
		best  MaintenanceWindow
		found bool
	)
	for start := hours.Open; start+duration <= hours.Close; start++ {
		var sum float64
		complete := true
		for h := start; h < start+duration; h++ {
			hf, ok := f.Hour(h)
			if !ok || hf.Absent {
				complete = false
				break
			}
			sum += hf.Demand
		}
		if !complete {
			continue
		}
		if !found || sum < best.TotalDemand-demandEpsilon {
			best = MaintenanceWindow{Start: start, Duration: duration, TotalDemand: sum}
			found = true
		}
	}
	if !found {
		return MaintenanceWindow{}, fmt.Errorf("%w: forecast does not cover %s", ErrNoMaintenanceWindow, hours)
	}
	return best, nil
}
