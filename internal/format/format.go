// Package format renders planning reports for terminals, files and HTTP clients.
package format

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

// Format names an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat accepts text, json or csv, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, CSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or csv)", s)
	}
}

// ContentType is the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes r to w in format f.
func Render(w io.Writer, f Format, r domain.Report) error {
	var (
		out string
		err error
	)
	switch f {
	case JSON:
		out, err = FormatJSON(r)
	case CSV:
		out, err = FormatCSV(r)
	case Text:
		out = FormatText(r)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// hourRow is one hour of the report flattened for tabular output.
type hourRow struct {
	Hour          int
	Baseline      float64
	Demand        float64
	LowConfidence bool
	HasWeather    bool
	PrecipPct     float64
	TempC         float64
	Open          bool
	Staff         int
	Maintenance   bool
}

func prepareRows(r domain.Report) []hourRow {
	rows := make([]hourRow, 0, len(r.Forecast.Hours))
	for _, hf := range r.Forecast.Hours {
		row := hourRow{
			Hour:          hf.Hour,
			Baseline:      hf.Baseline,
			Demand:        hf.Demand,
			LowConfidence: hf.LowConfidence,
		}
		if hf.Weather != nil {
			row.HasWeather = true
			row.PrecipPct = hf.Weather.PrecipitationProbability
			row.TempC = hf.Weather.TemperatureC
		}
		if slot, ok := r.Staffing.Slot(hf.Hour); ok {
			row.Open = true
			row.Staff = slot.Staff
		}
		if m := r.Maintenance; m != nil && hf.Hour >= m.Start && hf.Hour < m.End() {
			row.Maintenance = true
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatText returns the summary followed by an hour-by-hour table of the
// operating hours.
func FormatText(r domain.Report) string {
	var sb strings.Builder
	sb.WriteString(r.Summary)
	if !strings.HasSuffix(r.Summary, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%-6s %8s %8s %6s %6s  %s\n", "HOUR", "BASELINE", "DEMAND", "RAIN", "STAFF", "NOTES")

	for _, row := range prepareRows(r) {
		if !row.Open {
			continue
		}
		rain := "-"
		if row.HasWeather {
			rain = fmt.Sprintf("%.0f%%", row.PrecipPct)
		}
		var notes []string
		if row.LowConfidence {
			notes = append(notes, "no history")
		}
		if row.Maintenance {
			notes = append(notes, "maintenance")
		}
		fmt.Fprintf(&sb, "%02d:00  %8.1f %8.1f %6s %6d  %s\n",
			row.Hour, row.Baseline, row.Demand, rain, row.Staff, strings.Join(notes, ", "))
	}
	return sb.String()
}

// FormatJSON returns the indented JSON encoding of the full report.
func FormatJSON(r domain.Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(data) + "\n", nil
}

// FormatCSV returns one row per hour of the target date. Staff is blank
// outside operating hours and weather columns are blank when no forecast was
// available for the hour.
func FormatCSV(r domain.Report) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	if err := writer.Write([]string{
		"hour", "baseline", "demand", "low_confidence", "precip_pct", "temp_c", "staff", "maintenance",
	}); err != nil {
		return "", err
	}

	for _, row := range prepareRows(r) {
		rec := []string{
			strconv.Itoa(row.Hour),
			formatFloat(row.Baseline),
			formatFloat(row.Demand),
			strconv.FormatBool(row.LowConfidence),
			"",
			"",
			"",
			strconv.FormatBool(row.Maintenance),
		}
		if row.HasWeather {
			rec[4] = formatFloat(row.PrecipPct)
			rec[5] = formatFloat(row.TempC)
		}
		if row.Open {
			rec[6] = strconv.Itoa(row.Staff)
		}
		if err := writer.Write(rec); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
