package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // civil timezones must resolve on minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Location is the civil timezone all hours are computed in.
	Location *time.Location
	Columns  domain.ColumnMapping

	Thresholds          domain.ThresholdTable
	Hours               domain.OperatingHours
	MaintenanceHours    int
	Adjustment          domain.AdjustmentParams
	DefaultTrafficIndex float64

	// Weather forecast configuration.
	SiteLatitude     float64
	SiteLongitude    float64
	WeatherEnabled   bool
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherCacheSize int
	WeatherCacheTTL  time.Duration

	MaxUploadBytes int64

	// Report publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaReportTopic string
}

// PublishEnabled reports whether finished reports are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// Invalid values fail here so a misconfigured service never starts.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &envParser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,

		Columns: domain.ColumnMapping{
			Timestamp:         sharedcfg.EnvOrDefault("COLUMN_TIMESTAMP", "time"),
			Amount:            sharedcfg.EnvOrDefault("COLUMN_AMOUNT", "total"),
			Customer:          p.optional("COLUMN_CUSTOMER", "licensePlate"),
			Membership:        p.optional("COLUMN_MEMBERSHIP", "type"),
			MembershipKeyword: sharedcfg.EnvOrDefault("MEMBERSHIP_KEYWORD", "member"),
		},

		Hours: domain.OperatingHours{
			Open:  p.int("OPEN_HOUR", 7),
			Close: p.int("CLOSE_HOUR", 20),
		},
		MaintenanceHours: p.int("MAINTENANCE_HOURS", 2),
		Adjustment: domain.AdjustmentParams{
			RainOnsetPct:     p.float("RAIN_ONSET_PCT", 20),
			RainFloor:        p.float("RAIN_FLOOR", 0.5),
			TrafficMinFactor: p.float("TRAFFIC_MIN_FACTOR", 0.8),
			TrafficMaxFactor: p.float("TRAFFIC_MAX_FACTOR", 1.2),
		},
		DefaultTrafficIndex: p.float("DEFAULT_TRAFFIC_INDEX", domain.NeutralTrafficIndex),

		SiteLatitude:     p.float("SITE_LATITUDE", 35.0484),
		SiteLongitude:    p.float("SITE_LONGITUDE", -89.8679),
		WeatherEnabled:   p.bool("WEATHER_ENABLED", true),
		WeatherBaseURL:   sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:   p.duration("WEATHER_TIMEOUT", 5*time.Second),
		WeatherCacheSize: p.int("WEATHER_CACHE_SIZE", 64),
		WeatherCacheTTL:  p.duration("WEATHER_CACHE_TTL", 30*time.Minute),

		MaxUploadBytes: int64(p.int("MAX_UPLOAD_BYTES", 10<<20)),

		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "ops-reports"),
	}
	if brokers := strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}
	if p.err != nil {
		return nil, p.err
	}

	tz := sharedcfg.EnvOrDefault("TIMEZONE", "America/Chicago")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	thresholds, err := domain.ParseThresholds(sharedcfg.EnvOrDefault("STAFFING_THRESHOLDS", "20:2,40:3,60:4,80:5,*:6"))
	if err != nil {
		return nil, fmt.Errorf("invalid STAFFING_THRESHOLDS: %w", err)
	}
	cfg.Thresholds = thresholds

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.LogFormat)
	}
	if err := c.Columns.Validate(); err != nil {
		return fmt.Errorf("invalid column mapping: %w", err)
	}
	if err := c.Hours.Validate(); err != nil {
		return fmt.Errorf("invalid OPEN_HOUR/CLOSE_HOUR: %w", err)
	}
	if c.MaintenanceHours <= 0 || c.MaintenanceHours > c.Hours.Len() {
		return fmt.Errorf("invalid MAINTENANCE_HOURS %d: must be between 1 and %d", c.MaintenanceHours, c.Hours.Len())
	}
	if err := c.Adjustment.Validate(); err != nil {
		return fmt.Errorf("invalid forecast adjustment: %w", err)
	}
	if c.DefaultTrafficIndex < 0 || c.DefaultTrafficIndex > 1 {
		return errors.New("invalid DEFAULT_TRAFFIC_INDEX: must be between 0 and 1")
	}
	if c.SiteLatitude < -90 || c.SiteLatitude > 90 {
		return errors.New("invalid SITE_LATITUDE")
	}
	if c.SiteLongitude < -180 || c.SiteLongitude > 180 {
		return errors.New("invalid SITE_LONGITUDE")
	}
	if c.WeatherTimeout <= 0 {
		return errors.New("invalid WEATHER_TIMEOUT")
	}
	if c.WeatherCacheSize <= 0 {
		return errors.New("invalid WEATHER_CACHE_SIZE")
	}
	if c.WeatherCacheTTL <= 0 {
		return errors.New("invalid WEATHER_CACHE_TTL")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("invalid MAX_UPLOAD_BYTES")
	}
	if c.PublishEnabled() && c.KafkaReportTopic == "" {
		return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// ParseLogLevel maps a LOG_LEVEL value onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
}

// envParser reads typed values and keeps the first failure so Load can report
// it after building the whole struct.
type envParser struct {
	err error
}

func (p *envParser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, value)
	}
}

func (p *envParser) raw(key string) (string, bool) {
	v := strings.TrimSpace(sharedcfg.EnvOrDefault(key, ""))
	return v, v != ""
}

func (p *envParser) int(key string, def int) int {
	s, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return n
}

func (p *envParser) float(key string, def float64) float64 {
	s, ok := p.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return f
}

func (p *envParser) bool(key string, def bool) bool {
	s, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return b
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	s, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return d
}

// optional returns def when key is unset and "" when it is set to "-", which
// disables an optional column.
func (p *envParser) optional(key, def string) string {
	s, ok := p.raw(key)
	if !ok {
		return def
	}
	if s == "-" {
		return ""
	}
	return s
}
