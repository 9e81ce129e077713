package openmeteo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
)

// --- mock for cache tests ---

type countingProvider struct {
	calls  int
	signal domain.WeatherSignal
	err    error
}

func (m *countingProvider) HourlyForecast(_ context.Context, _ domain.WeatherQuery) (domain.WeatherSignal, error) {
	m.calls++
	return m.signal, m.err
}

func usableSignal() domain.WeatherSignal {
	return domain.WeatherSignal{Source: sourceName, Hours: []domain.HourlyWeather{{Hour: 9, PrecipitationProbability: 40}}}
}

func newTestCache(inner domain.WeatherProvider, size int, ttl time.Duration) (*CachedProvider, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClockAt(time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC))
	c := NewCachedProvider(inner, size, ttl, observability.NewMetricsForTesting())
	c.clock = fc
	return c, fc
}

// --- CachedProvider tests ---

func TestCachedProvider_CacheHit(t *testing.T) {
	inner := &countingProvider{signal: usableSignal()}
	cached, _ := newTestCache(inner, 10, time.Hour)
	q := testQuery(t)

	s1, err := cached.HourlyForecast(context.Background(), q)
	require.NoError(t, err)
	s2, err := cached.HourlyForecast(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedProvider_Expiry(t *testing.T) {
	inner := &countingProvider{signal: usableSignal()}
	cached, fc := newTestCache(inner, 10, 30*time.Minute)
	q := testQuery(t)

	_, _ = cached.HourlyForecast(context.Background(), q)
	fc.Advance(29 * time.Minute)
	_, _ = cached.HourlyForecast(context.Background(), q)
	assert.Equal(t, 1, inner.calls)

	fc.Advance(time.Minute)
	_, _ = cached.HourlyForecast(context.Background(), q)
	assert.Equal(t, 2, inner.calls, "expired entry should be refetched")
}

func TestCachedProvider_DifferentKeysMiss(t *testing.T) {
	inner := &countingProvider{signal: usableSignal()}
	cached, _ := newTestCache(inner, 10, time.Hour)
	q := testQuery(t)
	next := q
	next.Date = q.Date.AddDate(0, 0, 1)

	_, _ = cached.HourlyForecast(context.Background(), q)
	_, _ = cached.HourlyForecast(context.Background(), next)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_EmptyAndErrorsNotCached(t *testing.T) {
	inner := &countingProvider{}
	cached, _ := newTestCache(inner, 10, time.Hour)
	q := testQuery(t)

	_, _ = cached.HourlyForecast(context.Background(), q)
	_, _ = cached.HourlyForecast(context.Background(), q)
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("boom")
	_, err := cached.HourlyForecast(context.Background(), q)
	require.Error(t, err)
	assert.Equal(t, 0, cached.cache.len())
}

// --- LRU cache unit tests ---

func TestLRUCache_Eviction(t *testing.T) {
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	c := newLRUCache(2)

	c.put("a", domain.WeatherSignal{Source: "a"}, later)
	c.put("b", domain.WeatherSignal{Source: "b"}, later)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.get("a", now)
	require.True(t, ok)

	c.put("c", domain.WeatherSignal{Source: "c"}, later)
	assert.Equal(t, 2, c.len())

	_, ok = c.get("b", now)
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.get("a", now)
	require.True(t, ok)
	assert.Equal(t, "a", v.Source)
	_, ok = c.get("c", now)
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	c := newLRUCache(2)
	c.put("a", domain.WeatherSignal{Source: "old"}, now.Add(time.Minute))
	c.put("a", domain.WeatherSignal{Source: "new"}, now.Add(time.Hour))

	v, ok := c.get("a", now.Add(30*time.Minute))
	require.True(t, ok)
	assert.Equal(t, "new", v.Source)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_ExpiredRemoved(t *testing.T) {
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	c := newLRUCache(2)
	c.put("a", domain.WeatherSignal{}, now)

	_, ok := c.get("a", now)
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}
