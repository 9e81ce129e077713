package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
)

// publishTimeout bounds how long a finished run waits on the report sink.
const publishTimeout = 5 * time.Second

// ErrInvalidRequest wraps run options that cannot be honored.
var ErrInvalidRequest = errors.New("invalid request")

var (
	errWeatherDisabled = errors.New("live weather disabled")
	errNotReady        = errors.New("pipeline is shut down")
)

// ReportPublisher delivers finished reports to a downstream sink.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Pipeline runs the planning stages for one uploaded dataset at a time. It
// holds no per-run state, so concurrent runs are independent.
type Pipeline struct {
	settings  Settings
	weather   domain.WeatherProvider
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. A nil weather provider forces degraded forecasts and
// a nil publisher disables report publishing.
func New(settings Settings, weather domain.WeatherProvider, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	p := &Pipeline{
		settings:  settings,
		weather:   weather,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
	if weather != nil {
		metrics.WeatherEnabled.Set(1)
	} else {
		metrics.WeatherEnabled.Set(0)
	}
	p.ready.Store(true)
	metrics.PipelineReady.Set(1)
	return p
}

// CheckReadiness returns nil while the pipeline accepts runs.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errNotReady
	}
	return nil
}

// Close stops the pipeline from accepting new runs.
func (p *Pipeline) Close() {
	p.ready.Store(false)
	p.metrics.PipelineReady.Set(0)
}

// Settings returns the effective run defaults.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Options are the per-run parameters a caller may override. Zero values and
// nil pointers fall back to the configured defaults.
type Options struct {
	TargetDate       string // YYYY-MM-DD in the civil timezone
	TrafficIndex     *float64
	TrafficLevel     *int // 1..5, alternative to TrafficIndex
	MaintenanceHours int
	Latitude         *float64
	Longitude        *float64
}

// Run is a validated set of run parameters.
type Run struct {
	ID               uuid.UUID
	TargetDate       time.Time
	TrafficIndex     float64
	MaintenanceHours int
	Latitude         float64
	Longitude        float64
}

// NewRun validates opts and resolves defaults. The default target date is
// tomorrow in the civil timezone.
func (p *Pipeline) NewRun(opts Options) (Run, error) {
	s := p.settings
	run := Run{
		ID:               uuid.New(),
		TrafficIndex:     s.DefaultTrafficIndex,
		MaintenanceHours: s.MaintenanceHours,
		Latitude:         s.Latitude,
		Longitude:        s.Longitude,
	}

	if opts.TargetDate == "" {
		run.TargetDate = domain.Tomorrow(s.Location)
	} else {
		d, err := time.ParseInLocation(time.DateOnly, opts.TargetDate, s.Location)
		if err != nil {
			return Run{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRequest, opts.TargetDate)
		}
		run.TargetDate = d
	}

	switch {
	case opts.TrafficIndex != nil && opts.TrafficLevel != nil:
		return Run{}, fmt.Errorf("%w: give either a traffic index or a traffic level, not both", ErrInvalidRequest)
	case opts.TrafficIndex != nil:
		v := *opts.TrafficIndex
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Run{}, fmt.Errorf("%w: traffic index %v must be between 0 and 1", ErrInvalidRequest, v)
		}
		run.TrafficIndex = v
	case opts.TrafficLevel != nil:
		v, err := domain.TrafficIndexFromLevel(*opts.TrafficLevel)
		if err != nil {
			return Run{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		run.TrafficIndex = v
	}

	if opts.MaintenanceHours != 0 {
		run.MaintenanceHours = opts.MaintenanceHours
	}
	if run.MaintenanceHours < 1 || run.MaintenanceHours > s.Hours.Len() {
		return Run{}, fmt.Errorf("%w: maintenance hours %d must be between 1 and %d", ErrInvalidRequest, run.MaintenanceHours, s.Hours.Len())
	}

	if opts.Latitude != nil {
		run.Latitude = *opts.Latitude
	}
	if opts.Longitude != nil {
		run.Longitude = *opts.Longitude
	}
	if math.IsNaN(run.Latitude) || math.IsNaN(run.Longitude) ||
		run.Latitude < -90 || run.Latitude > 90 || run.Longitude < -180 || run.Longitude > 180 {
		return Run{}, fmt.Errorf("%w: coordinates %v,%v out of range", ErrInvalidRequest, run.Latitude, run.Longitude)
	}
	return run, nil
}

// Process validates opts and executes a run over table.
func (p *Pipeline) Process(ctx context.Context, table domain.Table, opts Options) (domain.Report, error) {
	run, err := p.NewRun(opts)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("invalid_input").Inc()
		return domain.Report{}, err
	}
	return p.Execute(ctx, run, table)
}

// Execute runs every stage for one dataset. The weather fetch runs alongside
// normalization and aggregation and is bounded by the configured timeout; its
// failure degrades the forecast instead of failing the run. Structural input
// errors fail the run.
func (p *Pipeline) Execute(ctx context.Context, run Run, table domain.Table) (domain.Report, error) {
	if !p.ready.Load() {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return domain.Report{}, errNotReady
	}
	start := time.Now()
	logger := p.logger.With("run_id", run.ID, "target_date", run.TargetDate.Format(time.DateOnly))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		g          errgroup.Group
		signal     *domain.WeatherSignal
		weatherErr error
	)
	if p.weather == nil {
		weatherErr = errWeatherDisabled
	} else {
		g.Go(func() error {
			wctx, wcancel := context.WithTimeout(ctx, p.settings.WeatherTimeout)
			defer wcancel()
			s, err := p.weather.HourlyForecast(wctx, domain.WeatherQuery{
				Latitude:  run.Latitude,
				Longitude: run.Longitude,
				Date:      run.TargetDate,
			})
			if err != nil {
				weatherErr = err
				return nil
			}
			signal = &s
			return nil
		})
	}

	res, err := domain.Normalize(table, p.settings.Columns, p.settings.Location)
	if err != nil {
		cancel()
		_ = g.Wait()
		p.metrics.RunsTotal.WithLabelValues("invalid_input").Inc()
		logger.Warn("input rejected", "error", err)
		return domain.Report{}, err
	}
	p.recordIngest(logger, res)
	logger.Info("input normalized", "rows", res.Rows(), "accepted", len(res.Transactions), "rejected", len(res.Rejected))

	profile := domain.BuildBaseline(res.Transactions)
	customers := domain.SummarizeCustomers(domain.Classify(res.Transactions))
	usage := domain.SummarizeUsage(res.Transactions)

	_ = g.Wait()

	forecast := domain.AdjustForecast(profile, run.TargetDate, signal, run.TrafficIndex, p.settings.Adjustment)
	if forecast.Degraded {
		forecast.DegradedReason = describeWeatherError(weatherErr)
		p.metrics.DegradedForecasts.Inc()
		logger.Warn("forecast degraded to baseline", "reason", forecast.DegradedReason, "error", weatherErr)
	}

	report := domain.Report{
		RunID:          run.ID,
		GeneratedAt:    domain.Now(),
		Timezone:       p.settings.Location.String(),
		TargetDate:     run.TargetDate.Format(time.DateOnly),
		OperatingHours: p.settings.Hours,
		Ingest:         domain.NewIngestStats(res),
		Buckets:        domain.BucketTransactions(res.Transactions),
		Baseline:       profile.Cells(),
		Customers:      customers,
		Usage:          usage,
		Forecast:       forecast,
		Staffing:       domain.PlanStaffing(forecast, p.settings.Thresholds, p.settings.Hours),
	}

	window, err := domain.SelectMaintenanceWindow(forecast, run.MaintenanceHours, p.settings.Hours)
	if err != nil {
		report.MaintenanceNote = err.Error()
	} else {
		report.Maintenance = &window
	}

	summary, err := domain.RenderSummary(report)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		return domain.Report{}, err
	}
	report.Summary = summary

	p.publish(ctx, logger, report)

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.Info("run completed",
		"rows", report.Ingest.Rows,
		"rejected", report.Ingest.Rejected,
		"degraded", forecast.Degraded,
		"confidence", forecast.Confidence,
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) recordIngest(logger *slog.Logger, res domain.NormalizeResult) {
	p.metrics.RowsAccepted.Add(float64(len(res.Transactions)))
	for _, rej := range res.Rejected {
		p.metrics.RowsRejected.WithLabelValues(rej.Field).Inc()
		logger.Debug("row rejected", "line", rej.Line, "field", rej.Field, "reason", rej.Reason)
	}
}

// publish is best effort: a sink failure is logged and counted, never returned.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, report domain.Report) {
	if p.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.publisher.Publish(pctx, report); err != nil {
		p.metrics.ReportsPublished.WithLabelValues("error").Inc()
		logger.Error("publish report failed", "error", err)
		return
	}
	p.metrics.ReportsPublished.WithLabelValues("success").Inc()
}

// describeWeatherError turns a fetch failure into the reason shown to users.
func describeWeatherError(err error) string {
	var netErr net.Error
	switch {
	case err == nil:
		return "weather forecast had no usable hours"
	case errors.Is(err, errWeatherDisabled):
		return "live weather is disabled"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "weather request timed out"
	case errors.Is(err, context.Canceled):
		return "weather request was cancelled"
	default:
		return "weather request failed"
	}
}
