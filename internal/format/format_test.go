package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

func sampleReport() domain.Report {
	hours := make([]domain.HourForecast, 24)
	for h := range 24 {
		hours[h] = domain.HourForecast{Hour: h, Baseline: 1.5, Demand: 1.5, LowConfidence: true, RainFactor: 1, TrafficFactor: 1}
	}
	hours[9] = domain.HourForecast{
		Hour: 9, Baseline: 4, HasBaseline: true, RainFactor: 0.5, TrafficFactor: 1, Demand: 2,
		Weather: &domain.HourlyWeather{Hour: 9, PrecipitationProbability: 100, TemperatureC: 18.5},
	}
	hours[10] = domain.HourForecast{Hour: 10, Baseline: 1, HasBaseline: true, RainFactor: 1, TrafficFactor: 1, Demand: 1}

	return domain.Report{
		TargetDate:     "2024-06-10",
		OperatingHours: domain.OperatingHours{Open: 8, Close: 11},
		Forecast:       domain.AdjustedForecast{Confidence: domain.ConfidenceNormal, Hours: hours},
		Staffing: domain.StaffingPlan{
			Slots: []domain.StaffingSlot{
				{Hour: 8, Demand: 1.5, Staff: 2},
				{Hour: 9, Demand: 2, Staff: 2},
				{Hour: 10, Demand: 1, Staff: 2},
			},
			PeakStaff:  2,
			StaffHours: 6,
		},
		Maintenance: &domain.MaintenanceWindow{Start: 10, Duration: 1, TotalDemand: 1},
		Summary:     "Forecast for Monday 2024-06-10: about 5 washes between 08:00-11:00.",
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"text": Text, "JSON": JSON, " csv ": CSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSON.ContentType())
	assert.Equal(t, "text/csv; charset=utf-8", CSV.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", Text.ContentType())
}

func TestFormatText(t *testing.T) {
	out := FormatText(sampleReport())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "Forecast for Monday 2024-06-10: about 5 washes between 08:00-11:00.", lines[0])
	assert.Empty(t, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "HOUR"))
	require.Len(t, lines, 6, "header plus one line per operating hour")
	assert.Contains(t, lines[3], "08:00")
	assert.Contains(t, lines[3], "no history")
	assert.Contains(t, lines[4], "100%")
	assert.Contains(t, lines[5], "maintenance")
	assert.NotContains(t, out, "07:00")
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sampleReport())
	require.NoError(t, err)

	var decoded domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "2024-06-10", decoded.TargetDate)
	require.NotNil(t, decoded.Maintenance)
	assert.Equal(t, 10, decoded.Maintenance.Start)
}

func TestFormatCSV(t *testing.T) {
	out, err := FormatCSV(sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 25)

	assert.Equal(t, []string{"hour", "baseline", "demand", "low_confidence", "precip_pct", "temp_c", "staff", "maintenance"}, records[0])
	assert.Equal(t, []string{"0", "1.50", "1.50", "true", "", "", "", "false"}, records[1])
	assert.Equal(t, []string{"9", "4.00", "2.00", "false", "100.00", "18.50", "2", "false"}, records[10])
	assert.Equal(t, []string{"10", "1.00", "1.00", "false", "", "", "2", "true"}, records[11])
}

func TestRender(t *testing.T) {
	r := sampleReport()
	for _, f := range []Format{Text, JSON, CSV} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, f, r), f)
		assert.NotEmpty(t, buf.String(), f)
	}

	var buf bytes.Buffer
	require.Error(t, Render(&buf, Format("yaml"), r))
}
