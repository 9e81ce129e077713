package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryReport(t *testing.T, signal *WeatherSignal) Report {
	t.Helper()
	profile, loc := mondayProfile(t)
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)
	hours := OperatingHours{Open: 8, Close: 12}

	f := AdjustForecast(profile, monday, signal, NeutralTrafficIndex, DefaultAdjustmentParams())
	if f.Degraded {
		f.DegradedReason = "weather request timed out"
	}
	w, err := SelectMaintenanceWindow(f, 1, hours)
	require.NoError(t, err)

	return Report{
		TargetDate:     "2024-06-10",
		OperatingHours: hours,
		Ingest:         IngestStats{Rows: 4, Accepted: 3, Rejected: 1},
		Customers:      CustomerSummary{IdentifiedVisits: 3, UniqueCustomers: 2, NewCustomers: 2, ReturningVisits: 1, MemberVisits: 1},
		Forecast:       f,
		Staffing:       PlanStaffing(f, DefaultThresholds(), hours),
		Maintenance:    &w,
	}
}

func TestRenderSummary(t *testing.T) {
	t.Run("degraded mode is noted", func(t *testing.T) {
		r := summaryReport(t, nil)
		got, err := RenderSummary(r)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(got, "Weather forecast unavailable (weather request timed out)"), got)
		assert.Contains(t, got, "Forecast for Monday 2024-06-10")
		assert.Contains(t, got, "Peak demand is expected at 09:00")
		assert.NotContains(t, got, "Traffic index")
		assert.Contains(t, got, "Processed 3 of 4 rows; 1 rejected")
		assert.Contains(t, got, "2 unique customers, 2 new, 1 returning visits, 1 member visits")
	})

	t.Run("live weather", func(t *testing.T) {
		loc := chicago(t)
		monday := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)
		r := summaryReport(t, rainSignal(monday, map[int]float64{10: 80}))
		got, err := RenderSummary(r)
		require.NoError(t, err)

		assert.NotContains(t, got, "Weather forecast unavailable")
		assert.Contains(t, got, "Rain is likely (>= 60% chance) at 10:00")
		assert.Contains(t, got, "Traffic index 0.50 applies a 1.00x adjustment")
		assert.Contains(t, got, "Peak demand is expected at 09:00 with about 2 washes; plan for 2 staff")
		assert.Contains(t, got, "No history for 08:00, 11:00")
		assert.Contains(t, got, "Best maintenance window: 10:00-11:00")
	})

	t.Run("deterministic", func(t *testing.T) {
		r := summaryReport(t, nil)
		a, err := RenderSummary(r)
		require.NoError(t, err)
		b, err := RenderSummary(r)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("no valid rows", func(t *testing.T) {
		r := summaryReport(t, nil)
		r.Ingest = IngestStats{Rows: 2, Rejected: 2}
		r.Customers = CustomerSummary{}
		r.Maintenance = nil
		r.MaintenanceNote = "3 hours do not fit"
		got, err := RenderSummary(r)
		require.NoError(t, err)
		assert.Contains(t, got, "No valid transactions were found in the upload; all 2 rows were rejected.")
		assert.Contains(t, got, "No maintenance window: 3 hours do not fit.")
		assert.NotContains(t, got, "unique customers")
	})
}

func TestNewIngestStats(t *testing.T) {
	res := NormalizeResult{Transactions: make([]Transaction, 3)}
	for i := range 60 {
		res.Rejected = append(res.Rejected, RowError{Line: i + 2, Field: "amount", Reason: "non-numeric amount"})
	}
	s := NewIngestStats(res)
	assert.Equal(t, 63, s.Rows)
	assert.Equal(t, 3, s.Accepted)
	assert.Equal(t, 60, s.Rejected)
	assert.Len(t, s.Rejections, 50)
	assert.True(t, s.Truncated)
}

func TestTomorrow(t *testing.T) {
	loc := chicago(t)
	// 2024-06-10 03:00 UTC is still June 9 in Chicago.
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, loc), Tomorrow(loc))
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, loc), CivilDate(Now(), loc))
}
