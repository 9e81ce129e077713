//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/carwash-ops/internal/domain"
	"github.com/couchcryptid/carwash-ops/internal/observability"
)

// These tests hit the real Open-Meteo API (no key required).
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return NewClient(DefaultBaseURL, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_HourlyForecast(t *testing.T) {
	c := smokeClient()
	q := testQuery(t)
	q.Date = domain.Tomorrow(q.Date.Location())

	signal, err := c.HourlyForecast(context.Background(), q)
	require.NoError(t, err)

	assert.NotEmpty(t, signal.Hours)
	for _, h := range signal.Hours {
		assert.GreaterOrEqual(t, h.PrecipitationProbability, 0.0)
		assert.LessOrEqual(t, h.PrecipitationProbability, 100.0)
	}
}

func TestSmoke_CachedProvider(t *testing.T) {
	c := smokeClient()
	cached := NewCachedProvider(c, 10, time.Minute, observability.NewMetricsForTesting())
	q := testQuery(t)
	q.Date = domain.Tomorrow(q.Date.Location())

	s1, err := cached.HourlyForecast(context.Background(), q)
	require.NoError(t, err)
	s2, err := cached.HourlyForecast(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}
