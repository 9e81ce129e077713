package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "America/Chicago", cfg.Location.String())
	assert.Equal(t, domain.DefaultColumnMapping(), cfg.Columns)
	assert.Equal(t, domain.DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, domain.DefaultOperatingHours(), cfg.Hours)
	assert.Equal(t, 2, cfg.MaintenanceHours)
	assert.Equal(t, domain.DefaultAdjustmentParams(), cfg.Adjustment)
	assert.Equal(t, 0.5, cfg.DefaultTrafficIndex)
	assert.Equal(t, 35.0484, cfg.SiteLatitude)
	assert.Equal(t, -89.8679, cfg.SiteLongitude)
	assert.True(t, cfg.WeatherEnabled)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.WeatherBaseURL)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 64, cfg.WeatherCacheSize)
	assert.Equal(t, 30*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "ops-reports", cfg.KafkaReportTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("COLUMN_TIMESTAMP", "sold_at")
	t.Setenv("COLUMN_AMOUNT", "price")
	t.Setenv("COLUMN_CUSTOMER", "-")
	t.Setenv("COLUMN_MEMBERSHIP", "plan")
	t.Setenv("MEMBERSHIP_KEYWORD", "unlimited")
	t.Setenv("STAFFING_THRESHOLDS", "10:1,*:2")
	t.Setenv("OPEN_HOUR", "6")
	t.Setenv("CLOSE_HOUR", "22")
	t.Setenv("MAINTENANCE_HOURS", "3")
	t.Setenv("RAIN_ONSET_PCT", "30")
	t.Setenv("RAIN_FLOOR", "0.6")
	t.Setenv("TRAFFIC_MIN_FACTOR", "0.9")
	t.Setenv("TRAFFIC_MAX_FACTOR", "1.5")
	t.Setenv("DEFAULT_TRAFFIC_INDEX", "0.25")
	t.Setenv("SITE_LATITUDE", "41.88")
	t.Setenv("SITE_LONGITUDE", "-87.63")
	t.Setenv("WEATHER_ENABLED", "false")
	t.Setenv("WEATHER_TIMEOUT", "2s")
	t.Setenv("WEATHER_CACHE_SIZE", "8")
	t.Setenv("WEATHER_CACHE_TTL", "5m")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "America/New_York", cfg.Location.String())
	assert.Equal(t, domain.ColumnMapping{
		Timestamp:         "sold_at",
		Amount:            "price",
		Membership:        "plan",
		MembershipKeyword: "unlimited",
	}, cfg.Columns)
	assert.Equal(t, "10:1,*:2", cfg.Thresholds.String())
	assert.Equal(t, domain.OperatingHours{Open: 6, Close: 22}, cfg.Hours)
	assert.Equal(t, 3, cfg.MaintenanceHours)
	assert.Equal(t, domain.AdjustmentParams{RainOnsetPct: 30, RainFloor: 0.6, TrafficMinFactor: 0.9, TrafficMaxFactor: 1.5}, cfg.Adjustment)
	assert.Equal(t, 0.25, cfg.DefaultTrafficIndex)
	assert.Equal(t, 41.88, cfg.SiteLatitude)
	assert.Equal(t, -87.63, cfg.SiteLongitude)
	assert.False(t, cfg.WeatherEnabled)
	assert.Equal(t, 2*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 8, cfg.WeatherCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"TIMEZONE", "Mars/Olympus_Mons", "TIMEZONE"},
		{"STAFFING_THRESHOLDS", "20:2,10:3,*:4", "STAFFING_THRESHOLDS"},
		{"STAFFING_THRESHOLDS", "20:2,40:3", "STAFFING_THRESHOLDS"},
		{"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"OPEN_HOUR", "seven", "OPEN_HOUR"},
		{"CLOSE_HOUR", "5", "OPEN_HOUR/CLOSE_HOUR"},
		{"MAINTENANCE_HOURS", "14", "MAINTENANCE_HOURS"},
		{"MAINTENANCE_HOURS", "0", "MAINTENANCE_HOURS"},
		{"TRAFFIC_MAX_FACTOR", "2", "adjustment"},
		{"RAIN_FLOOR", "abc", "RAIN_FLOOR"},
		{"DEFAULT_TRAFFIC_INDEX", "1.5", "DEFAULT_TRAFFIC_INDEX"},
		{"SITE_LATITUDE", "91", "SITE_LATITUDE"},
		{"WEATHER_ENABLED", "maybe", "WEATHER_ENABLED"},
		{"WEATHER_TIMEOUT", "bad", "WEATHER_TIMEOUT"},
		{"WEATHER_TIMEOUT", "0s", "WEATHER_TIMEOUT"},
		{"WEATHER_CACHE_SIZE", "0", "WEATHER_CACHE_SIZE"},
		{"WEATHER_CACHE_TTL", "-1m", "WEATHER_CACHE_TTL"},
		{"MAX_UPLOAD_BYTES", "-5", "MAX_UPLOAD_BYTES"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_InvalidThresholdsWrapDomainError(t *testing.T) {
	t.Setenv("STAFFING_THRESHOLDS", "oops")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrInvalidThresholds)
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLogLevel("loud")
	require.Error(t, err)
}
