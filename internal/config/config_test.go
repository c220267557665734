package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zone-api/internal/maps"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "STORE", "PG_HOST", "PG_PASSWORD", "GEOCODE_TIMEOUT_MS", "GEOCODE_CACHE_TTL_S", "CORS_ORIGINS", "OCCUPANCY_MEDIUM_AT", "OCCUPANCY_HIGH_AT", "RATE_LIMIT_QPS", "MAPS_LIBRARIES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, "postgres", c.Store)
	assert.Equal(t, 5*time.Second, c.GeocodeTimeout)
	assert.Equal(t, 24*time.Hour, c.GeocodeCacheTTL)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, 5, c.Occupancy.MediumAt)
	assert.Equal(t, 15, c.Occupancy.HighAt)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, maps.DefaultLibraries, c.MapsLibraries)
	assert.Equal(t, "postgres://postgres@localhost:5432/zoneapi?sslmode=disable", c.Postgres.DSN())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/v1/")
	t.Setenv("STORE", "Memory")
	t.Setenv("PG_PASSWORD", "s3cret")
	t.Setenv("GEOCODE_CACHE_TTL_S", "0")
	t.Setenv("GEOCODE_TIMEOUT_MS", "250")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("OCCUPANCY_MEDIUM_AT", "2")
	t.Setenv("OCCUPANCY_HIGH_AT", "notanumber")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_QPS", "-3")
	t.Setenv("MAPS_BROWSER_KEY", "browser-key")
	t.Setenv("MAP_DEFAULT_LAT", "20.5")

	c := FromEnv()
	assert.Equal(t, "/v1", c.APIBase)
	assert.Equal(t, "memory", c.Store)
	assert.Contains(t, c.Postgres.DSN(), "postgres:s3cret@")
	assert.Zero(t, c.GeocodeCacheTTL)
	assert.Equal(t, 250*time.Millisecond, c.GeocodeTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 2, c.Occupancy.MediumAt)
	assert.Equal(t, 15, c.Occupancy.HighAt)
	assert.True(t, c.RateLimitEnabled)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, 20.5, c.DefaultCenter.Lat)
	assert.Equal(t, "browser-key", c.Credentials()[maps.CredentialBrowser])
}
