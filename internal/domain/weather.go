package domain

import (
	"context"
	"time"
)

// HourlyWeather is the forecast for one civil hour on the target date.
type HourlyWeather struct {
	Time                     time.Time `json:"time"`
	Hour                     int       `json:"hour"`
	PrecipitationProbability float64   `json:"precipitation_probability"`
	TemperatureC             float64   `json:"temperature_c"`
	RainMM                   float64   `json:"rain_mm"`
	SnowfallMM               float64   `json:"snowfall_mm"`
}

// WeatherSignal is the hourly forecast for a target date. Hours absent from the
// provider's response are simply missing.
type WeatherSignal struct {
	Source string          `json:"source"`
	Date   time.Time       `json:"date"`
	Hours  []HourlyWeather `json:"hours"`
}

// Hour returns the forecast for hour-of-day h if the provider supplied one.
func (s WeatherSignal) Hour(h int) (HourlyWeather, bool) {
	for _, hw := range s.Hours {
		if hw.Hour == h {
			return hw, true
		}
	}
	return HourlyWeather{}, false
}

// WeatherQuery identifies the site and civil date to forecast. Date is midnight
// of the target day in the civil timezone.
type WeatherQuery struct {
	Latitude  float64
	Longitude float64
	Date      time.Time
}

// WeatherProvider fetches an hourly forecast. Implementations must honor ctx
// cancellation so callers can bound the request.
type WeatherProvider interface {
	HourlyForecast(ctx context.Context, q WeatherQuery) (WeatherSignal, error)
}
