package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// MaxMultiplier bounds the combined adjustment applied to a baseline.
	MaxMultiplier = 1.5

	// HighRainThreshold is the precipitation probability (percent) at which an
	// hour is called out as rainy in the summary.
	HighRainThreshold = 60.0

	// NeutralTrafficIndex leaves demand unchanged with the default traffic curve.
	NeutralTrafficIndex = 0.5
)

// Confidence describes how much the forecast can be trusted as a whole.
type Confidence string

const (
	ConfidenceNormal   Confidence = "normal"
	ConfidenceDegraded Confidence = "degraded"
)

// AdjustmentParams tunes the rain and traffic curves.
type AdjustmentParams struct {
	RainOnsetPct     float64 `json:"rain_onset_pct"`
	RainFloor        float64 `json:"rain_floor"`
	TrafficMinFactor float64 `json:"traffic_min_factor"`
	TrafficMaxFactor float64 `json:"traffic_max_factor"`
}

// DefaultAdjustmentParams returns the tuned defaults.
func DefaultAdjustmentParams() AdjustmentParams {
	return AdjustmentParams{
		RainOnsetPct:     20,
		RainFloor:        0.5,
		TrafficMinFactor: 0.8,
		TrafficMaxFactor: 1.2,
	}
}

// Validate rejects curves that could produce negative or runaway factors.
func (p AdjustmentParams) Validate() error {
	switch {
	case math.IsNaN(p.RainOnsetPct) || p.RainOnsetPct < 0 || p.RainOnsetPct >= 100:
		return fmt.Errorf("%w: rain onset %v must be in [0, 100)", ErrInvalidAdjustment, p.RainOnsetPct)
	case math.IsNaN(p.RainFloor) || p.RainFloor < 0 || p.RainFloor > 1:
		return fmt.Errorf("%w: rain floor %v must be in [0, 1]", ErrInvalidAdjustment, p.RainFloor)
	case math.IsNaN(p.TrafficMinFactor) || p.TrafficMinFactor < 0:
		return fmt.Errorf("%w: traffic min factor %v must be >= 0", ErrInvalidAdjustment, p.TrafficMinFactor)
	case math.IsNaN(p.TrafficMaxFactor) || p.TrafficMaxFactor > MaxMultiplier:
		return fmt.Errorf("%w: traffic max factor %v must be <= %v", ErrInvalidAdjustment, p.TrafficMaxFactor, MaxMultiplier)
	case p.TrafficMinFactor > p.TrafficMaxFactor:
		return fmt.Errorf("%w: traffic min factor %v exceeds max %v", ErrInvalidAdjustment, p.TrafficMinFactor, p.TrafficMaxFactor)
	}
	return nil
}

// RainFactor is 1 up to the onset probability, then falls linearly to the
// floor at 100%.
func (p AdjustmentParams) RainFactor(precipPct float64) float64 {
	frac := clamp((precipPct-p.RainOnsetPct)/(100-p.RainOnsetPct), 0, 1)
	return 1 - (1-p.RainFloor)*frac
}

// TrafficFactor rises linearly from the min factor at index 0 to the max
// factor at index 1.
func (p AdjustmentParams) TrafficFactor(index float64) float64 {
	return p.TrafficMinFactor + (p.TrafficMaxFactor-p.TrafficMinFactor)*clamp(index, 0, 1)
}

// TrafficIndexFromLevel maps a 1..5 dashboard level onto the 0..1 index.
func TrafficIndexFromLevel(level int) (float64, error) {
	if level < 1 || level > 5 {
		return 0, fmt.Errorf("traffic level %d out of range 1..5", level)
	}
	return float64(level-1) / 4, nil
}

// HourForecast is the adjusted demand for one hour of the target day.
type HourForecast struct {
	Hour          int            `json:"hour"`
	Baseline      float64        `json:"baseline"`
	HasBaseline   bool           `json:"has_baseline"`
	LowConfidence bool           `json:"low_confidence"`
	RainFactor    float64        `json:"rain_factor"`
	TrafficFactor float64        `json:"traffic_factor"`
	Demand        float64        `json:"demand"`
	Weather       *HourlyWeather `json:"weather,omitempty"`
	// Absent marks an hour skipped by a spring-forward transition; it carries
	// no demand. Repeated marks the hour that occurs twice at fall-back.
	Absent   bool `json:"absent,omitempty"`
	Repeated bool `json:"repeated,omitempty"`
}

// AdjustedForecast covers all 24 hours of the target date, indexed by hour.
type AdjustedForecast struct {
	Date           time.Time      `json:"date"`
	Weekday        time.Weekday   `json:"weekday"`
	TrafficIndex   float64        `json:"traffic_index"`
	TrafficFactor  float64        `json:"traffic_factor"`
	Confidence     Confidence     `json:"confidence"`
	Degraded       bool           `json:"degraded"`
	DegradedReason string         `json:"degraded_reason,omitempty"`
	Hours          []HourForecast `json:"hours"`
}

// AdjustForecast applies weather and traffic adjustments to the baseline for
// date's weekday. A nil or empty signal yields the degraded identity forecast:
// every hour's demand equals its baseline and no factor is applied.
func AdjustForecast(profile BaselineProfile, date time.Time, signal *WeatherSignal, trafficIndex float64, params AdjustmentParams) AdjustedForecast {
	degraded := signal == nil || len(signal.Hours) == 0
	f := AdjustedForecast{
		Date:         date,
		Weekday:      date.Weekday(),
		TrafficIndex: trafficIndex,
		Confidence:   ConfidenceNormal,
		Degraded:     degraded,
		Hours:        make([]HourForecast, 24),
	}
	if degraded {
		f.Confidence = ConfidenceDegraded
		f.TrafficFactor = 1
	} else {
		f.TrafficFactor = params.TrafficFactor(trafficIndex)
	}

	fallback, _ := profile.GlobalMean()
	for h := range 24 {
		hf := HourForecast{Hour: h, RainFactor: 1, TrafficFactor: 1}
		absent, repeated := civilHourShape(date, h)
		if absent {
			hf.Absent = true
			f.Hours[h] = hf
			continue
		}
		hf.Repeated = repeated
		if cell, ok := profile.Cell(CellKey{Weekday: f.Weekday, Hour: h}); ok {
			hf.Baseline = cell.MeanCount
			hf.HasBaseline = true
		} else {
			hf.Baseline = fallback
			hf.LowConfidence = true
		}

		if degraded {
			hf.Demand = hf.Baseline
			f.Hours[h] = hf
			continue
		}

		if hw, ok := signal.Hour(h); ok {
			w := hw
			hf.Weather = &w
			hf.RainFactor = params.RainFactor(hw.PrecipitationProbability)
		}
		hf.TrafficFactor = f.TrafficFactor
		hf.Demand = hf.Baseline * clamp(hf.RainFactor*hf.TrafficFactor, 0, MaxMultiplier)
		f.Hours[h] = hf
	}
	return f
}

// civilHourShape reports whether hour h of date's civil day is skipped or
// occurs twice because of a DST transition in date's location.
func civilHourShape(date time.Time, h int) (absent, repeated bool) {
	y, m, d := date.Date()
	t := time.Date(y, m, d, h, 0, 0, 0, date.Location())
	if t.Hour() != h {
		return true, false
	}
	return false, t.Add(time.Hour).Hour() == h || t.Add(-time.Hour).Hour() == h
}

// Hour returns the forecast for hour h.
func (f AdjustedForecast) Hour(h int) (HourForecast, bool) {
	if h < 0 || h >= len(f.Hours) {
		return HourForecast{}, false
	}
	return f.Hours[h], true
}

// Peak returns the highest-demand hour within hours; the earliest hour wins ties.
func (f AdjustedForecast) Peak(hours OperatingHours) (HourForecast, bool) {
	var best HourForecast
	found := false
	for h := hours.Open; h < hours.Close; h++ {
		hf, ok := f.Hour(h)
		if !ok {
			continue
		}
		if !found || hf.Demand > best.Demand {
			best = hf
			found = true
		}
	}
	return best, found
}

// Total sums demand across hours.
func (f AdjustedForecast) Total(hours OperatingHours) float64 {
	var sum float64
	for h := hours.Open; h < hours.Close; h++ {
		if hf, ok := f.Hour(h); ok {
			sum += hf.Demand
		}
	}
	return sum
}

// HighRainHours lists the hours within hours whose precipitation probability
// reaches HighRainThreshold.
func (f AdjustedForecast) HighRainHours(hours OperatingHours) []int {
	var out []int
	for h := hours.Open; h < hours.Close; h++ {
		hf, ok := f.Hour(h)
		if ok && hf.Weather != nil && hf.Weather.PrecipitationProbability >= HighRainThreshold {
			out = append(out, h)
		}
	}
	return out
}

// LowConfidenceHours lists the hours within hours that used the fallback baseline.
func (f AdjustedForecast) LowConfidenceHours(hours OperatingHours) []int {
	var out []int
	for h := hours.Open; h < hours.Close; h++ {
		if hf, ok := f.Hour(h); ok && hf.LowConfidence {
			out = append(out, h)
		}
	}
	return out
}

// clamp bounds v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
