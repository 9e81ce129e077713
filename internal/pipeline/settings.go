package pipeline

import (
	"time"

	"github.com/couchcryptid/carwash-ops/internal/config"
	"github.com/couchcryptid/carwash-ops/internal/domain"
)

// Settings are the validated, process-wide defaults every run starts from.
type Settings struct {
	Location            *time.Location
	Columns             domain.ColumnMapping
	Thresholds          domain.ThresholdTable
	Hours               domain.OperatingHours
	Adjustment          domain.AdjustmentParams
	MaintenanceHours    int
	DefaultTrafficIndex float64
	Latitude            float64
	Longitude           float64
	WeatherTimeout      time.Duration
}

// SettingsFromConfig copies the run defaults out of the service configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Location:            cfg.Location,
		Columns:             cfg.Columns,
		Thresholds:          cfg.Thresholds,
		Hours:               cfg.Hours,
		Adjustment:          cfg.Adjustment,
		MaintenanceHours:    cfg.MaintenanceHours,
		DefaultTrafficIndex: cfg.DefaultTrafficIndex,
		Latitude:            cfg.SiteLatitude,
		Longitude:           cfg.SiteLongitude,
		WeatherTimeout:      cfg.WeatherTimeout,
	}
}
