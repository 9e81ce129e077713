package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
)

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

const (
	sourceName  = "open-meteo"
	hourlyVars  = "temperature_2m,precipitation_probability,rain,snowfall"
	hourLayout  = "2006-01-02T15:04"
	maxErrorLen = 512
)

// ErrMalformedPayload is returned when a 200 response cannot be turned into an
// hourly forecast.
var ErrMalformedPayload = errors.New("malformed forecast payload")

// Client implements domain.WeatherProvider using the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. The timeout caps each request even
// when the caller's context has no deadline.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// HourlyForecast fetches the target date's hourly forecast in the date's
// timezone. Hours the provider reports without a precipitation probability
// are left out of the signal.
func (c *Client) HourlyForecast(ctx context.Context, q domain.WeatherQuery) (domain.WeatherSignal, error) {
	loc := q.Date.Location()
	day := q.Date.Format(time.DateOnly)
	params := url.Values{
		"latitude":   {strconv.FormatFloat(q.Latitude, 'f', 4, 64)},
		"longitude":  {strconv.FormatFloat(q.Longitude, 'f', 4, 64)},
		"hourly":     {hourlyVars},
		"timezone":   {loc.String()},
		"start_date": {day},
		"end_date":   {day},
	}

	start := time.Now()
	signal, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode(), q.Date)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		c.logger.Warn("weather forecast request failed", "date", day, "error", err)
	case len(signal.Hours) == 0:
		c.metrics.WeatherRequests.WithLabelValues("empty").Inc()
		c.logger.Warn("weather forecast has no usable hours", "date", day)
	default:
		c.metrics.WeatherRequests.WithLabelValues("success").Inc()
		c.logger.Debug("weather forecast fetched", "date", day, "hours", len(signal.Hours))
	}
	return signal, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string, date time.Time) (domain.WeatherSignal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherSignal{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherSignal{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorLen))
		return domain.WeatherSignal{}, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherSignal{}, fmt.Errorf("decode response: %w", err)
	}
	return payload.toSignal(date)
}

// Open-Meteo API response types. Values are nullable per hour.

type response struct {
	Timezone string `json:"timezone"`
	Hourly   hourly `json:"hourly"`
}

type hourly struct {
	Time                     []string   `json:"time"`
	Temperature2m            []*float64 `json:"temperature_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	Rain                     []*float64 `json:"rain"`
	Snowfall                 []*float64 `json:"snowfall"`
}

func (r response) toSignal(date time.Time) (domain.WeatherSignal, error) {
	h := r.Hourly
	n := len(h.Time)
	if n == 0 {
		return domain.WeatherSignal{}, fmt.Errorf("%w: no hourly data", ErrMalformedPayload)
	}
	if len(h.PrecipitationProbability) != n || len(h.Temperature2m) != n {
		return domain.WeatherSignal{}, fmt.Errorf("%w: hourly arrays have mismatched lengths", ErrMalformedPayload)
	}

	loc := date.Location()
	y, m, d := date.Date()
	signal := domain.WeatherSignal{Source: sourceName, Date: date}
	seen := make(map[int]bool, 24)
	for i, raw := range h.Time {
		t, err := time.ParseInLocation(hourLayout, raw, loc)
		if err != nil {
			return domain.WeatherSignal{}, fmt.Errorf("%w: hour %q: %w", ErrMalformedPayload, raw, err)
		}
		if ty, tm, td := t.Date(); ty != y || tm != m || td != d {
			continue
		}
		precip := h.PrecipitationProbability[i]
		if precip == nil || seen[t.Hour()] {
			continue
		}
		seen[t.Hour()] = true
		signal.Hours = append(signal.Hours, domain.HourlyWeather{
			Time:                     t,
			Hour:                     t.Hour(),
			PrecipitationProbability: *precip,
			TemperatureC:             valueAt(h.Temperature2m, i),
			RainMM:                   valueAt(h.Rain, i),
			SnowfallMM:               valueAt(h.Snowfall, i),
		})
	}
	return signal, nil
}

func valueAt(xs []*float64, i int) float64 {
	if i >= len(xs) || xs[i] == nil {
		return 0
	}
	return *xs[i]
}
