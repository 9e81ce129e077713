package domain

import (
	"time"

	"github.com/google/uuid"
)

// maxReportedRejections caps the row errors embedded in a report. The counts
// in IngestStats always reflect every rejected row.
const maxReportedRejections = 50

// IngestStats reports how many rows were examined and why any were excluded.
type IngestStats struct {
	Rows       int        `json:"rows"`
	Accepted   int        `json:"accepted"`
	Rejected   int        `json:"rejected"`
	Rejections []RowError `json:"rejections,omitempty"`
	Truncated  bool       `json:"truncated,omitempty"`
}

// NewIngestStats summarizes a normalization result.
func NewIngestStats(res NormalizeResult) IngestStats {
	s := IngestStats{
		Rows:     res.Rows(),
		Accepted: len(res.Transactions),
		Rejected: len(res.Rejected),
	}
	if len(res.Rejected) > maxReportedRejections {
		s.Rejections = append([]RowError(nil), res.Rejected[:maxReportedRejections]...)
		s.Truncated = true
	} else if len(res.Rejected) > 0 {
		s.Rejections = append([]RowError(nil), res.Rejected...)
	}
	return s
}

// Report is the full output of one planning run.
type Report struct {
	RunID           uuid.UUID          `json:"run_id"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Timezone        string             `json:"timezone"`
	TargetDate      string             `json:"target_date"`
	OperatingHours  OperatingHours     `json:"operating_hours"`
	Ingest          IngestStats        `json:"ingest"`
	Buckets         []HourlyBucket     `json:"buckets"`
	Baseline        []CellStats        `json:"baseline"`
	Customers       CustomerSummary    `json:"customers"`
	Usage           UsageSummary       `json:"usage"`
	Forecast        AdjustedForecast   `json:"forecast"`
	Staffing        StaffingPlan       `json:"staffing"`
	Maintenance     *MaintenanceWindow `json:"maintenance,omitempty"`
	MaintenanceNote string             `json:"maintenance_note,omitempty"`
	Summary         string             `json:"summary"`
}
