package domain

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"hour":  formatHour,
	"hours": formatHourList,
	"num":   formatDemand,
}).Parse(strings.TrimSpace(`
{{- if .Degraded}}Weather forecast unavailable ({{.DegradedReason}}); demand is based on historical averages only.
{{end -}}
Forecast for {{.Weekday}} {{.Date}}: about {{num .Total}} washes between {{.Hours}}.
{{- if .HasPeak}}
Peak demand is expected at {{hour .PeakHour}} with about {{num .PeakDemand}} washes; plan for {{.PeakStaff}} staff.
{{- end}}
{{- if .RainHours}}
Rain is likely (>= {{.RainThreshold}}% chance) at {{hours .RainHours}}; expect fewer customers.
{{- else if not .Degraded}}
No hours with a high chance of rain.
{{- end}}
{{- if .LowConfHours}}
No history for {{hours .LowConfHours}}; those hours use the overall average.
{{- end}}
{{- if not .Degraded}}
Traffic index {{printf "%.2f" .TrafficIndex}} applies a {{printf "%.2f" .TrafficFactor}}x adjustment.
{{- end}}
{{- if .Maintenance}}
Best maintenance window: {{.Maintenance}} (about {{num .MaintenanceDemand}} washes affected).
{{- else if .MaintenanceNote}}
No maintenance window: {{.MaintenanceNote}}.
{{- end}}
{{- if .NoData}}
No valid transactions were found in the upload; all {{.Rows}} rows were rejected.
{{- else}}
Processed {{.Accepted}} of {{.Rows}} rows{{if .Rejected}}; {{.Rejected}} rejected for bad timestamps or amounts{{end}}.
{{- end}}
{{- if .Customers.IdentifiedVisits}}
{{.Customers.UniqueCustomers}} unique customers, {{.Customers.NewCustomers}} new, {{.Customers.ReturningVisits}} returning visits, {{.Customers.MemberVisits}} member visits.
{{- end}}
`)))

type summaryView struct {
	Degraded          bool
	DegradedReason    string
	Weekday           string
	Date              string
	Hours             string
	Total             float64
	HasPeak           bool
	PeakHour          int
	PeakDemand        float64
	PeakStaff         int
	RainThreshold     float64
	RainHours         []int
	LowConfHours      []int
	TrafficIndex      float64
	TrafficFactor     float64
	Maintenance       string
	MaintenanceDemand float64
	MaintenanceNote   string
	NoData            bool
	Rows              int
	Accepted          int
	Rejected          int
	Customers         CustomerSummary
}

// RenderSummary produces the plain-language summary of a report. The output is
// deterministic for a given report.
func RenderSummary(r Report) (string, error) {
	f := r.Forecast
	hours := r.OperatingHours
	v := summaryView{
		Degraded:        f.Degraded,
		DegradedReason:  f.DegradedReason,
		Weekday:         f.Weekday.String(),
		Date:            r.TargetDate,
		Hours:           hours.String(),
		Total:           f.Total(hours),
		RainThreshold:   HighRainThreshold,
		RainHours:       f.HighRainHours(hours),
		LowConfHours:    f.LowConfidenceHours(hours),
		TrafficIndex:    f.TrafficIndex,
		TrafficFactor:   f.TrafficFactor,
		MaintenanceNote: r.MaintenanceNote,
		NoData:          r.Ingest.Accepted == 0,
		Rows:            r.Ingest.Rows,
		Accepted:        r.Ingest.Accepted,
		Rejected:        r.Ingest.Rejected,
		Customers:       r.Customers,
	}
	if v.DegradedReason == "" {
		v.DegradedReason = "no data"
	}
	if peak, ok := f.Peak(hours); ok {
		v.HasPeak = true
		v.PeakHour = peak.Hour
		v.PeakDemand = peak.Demand
		if slot, ok := r.Staffing.Slot(peak.Hour); ok {
			v.PeakStaff = slot.Staff
		}
	}
	if r.Maintenance != nil {
		v.Maintenance = r.Maintenance.String()
		v.MaintenanceDemand = r.Maintenance.TotalDemand
	}

	var b strings.Builder
	if err := summaryTmpl.Execute(&b, v); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return b.String(), nil
}

func formatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}

func formatHourList(hs []int) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		parts[i] = formatHour(h)
	}
	return strings.Join(parts, ", ")
}

// formatDemand rounds to one decimal and drops a trailing ".0".
func formatDemand(v float64) string {
	return strconv.FormatFloat(float64(int64(v*10+0.5))/10, 'f', -1, 64)
}
