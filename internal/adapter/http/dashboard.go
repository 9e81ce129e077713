package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"hour": func(h int) string { return fmt.Sprintf("%02d:00", h) },
	"num":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).ParseFS(templateFS, "templates/*.html"))

type indexView struct {
	Error string
}

type reportView struct {
	Report domain.Report
	Hours  []hourView
	Grid   baselineGrid
}

type hourView struct {
	Hour          int
	Baseline      float64
	Demand        float64
	Rain          string
	Staff         int
	LowConfidence bool
	Maintenance   bool
}

// baselineGrid lays the historical cells out as weekday rows by hour columns.
type baselineGrid struct {
	Hours []int
	Rows  []gridRow
}

type gridRow struct {
	Day   string
	Cells []gridCell
}

type gridCell struct {
	Mean    float64
	HasData bool
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "index.html", indexView{})
}

func (s *Server) handleDashboardUpload(w http.ResponseWriter, r *http.Request) {
	report, err := s.runUpload(w, r)
	if err != nil {
		s.renderPage(w, statusFor(err), "index.html", indexView{Error: err.Error()})
		return
	}
	s.renderPage(w, http.StatusOK, "report.html", newReportView(report))
}

// renderPage executes into a buffer first so template failures still produce
// a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render page failed", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func newReportView(r domain.Report) reportView {
	v := reportView{Report: r, Grid: newBaselineGrid(r.Baseline, r.OperatingHours)}
	for h := r.OperatingHours.Open; h < r.OperatingHours.Close; h++ {
		hf, ok := r.Forecast.Hour(h)
		if !ok {
			continue
		}
		hv := hourView{
			Hour:          h,
			Baseline:      hf.Baseline,
			Demand:        hf.Demand,
			Rain:          "-",
			LowConfidence: hf.LowConfidence,
		}
		if hf.Weather != nil {
			hv.Rain = fmt.Sprintf("%.0f%%", hf.Weather.PrecipitationProbability)
		}
		if slot, ok := r.Staffing.Slot(h); ok {
			hv.Staff = slot.Staff
		}
		if m := r.Maintenance; m != nil && h >= m.Start && h < m.End() {
			hv.Maintenance = true
		}
		v.Hours = append(v.Hours, hv)
	}
	return v
}

func newBaselineGrid(cells []domain.CellStats, hours domain.OperatingHours) baselineGrid {
	means := make(map[domain.CellKey]float64, len(cells))
	for _, c := range cells {
		means[c.Key] = c.MeanCount
	}

	var g baselineGrid
	for h := hours.Open; h < hours.Close; h++ {
		g.Hours = append(g.Hours, h)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		row := gridRow{Day: d.String()[:3]}
		for _, h := range g.Hours {
			mean, ok := means[domain.CellKey{Weekday: d, Hour: h}]
			row.Cells = append(row.Cells, gridCell{Mean: mean, HasData: ok})
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}
