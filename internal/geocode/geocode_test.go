package geocode

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-api/internal/apperr"
)

type stubUpstream struct {
	calls  int32
	result *Result
	err    error
}

func (s *stubUpstream) Geocode(ctx context.Context, req Request) (*Result, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	r := *s.result
	return &r, nil
}

func TestEmptyAddressNeverReachesUpstream(t *testing.T) {
	up := &stubUpstream{result: &Result{}}
	svc := NewService(up, NewMemoryCache(8), time.Hour)

	for _, addr := range []string{"", "   ", "\t\n"} {
		_, err := svc.Geocode(context.Background(), Request{Address: addr, City: "CDMX"})
		assert.True(t, apperr.IsInvalidInput(err), "address %q", addr)
	}
	assert.Zero(t, atomic.LoadInt32(&up.calls))
}

func TestServiceCachesSuccessOnly(t *testing.T) {
	up := &stubUpstream{result: &Result{Lat: 19.43, Lng: -99.13, FormattedAddress: "Av. Reforma 123, Ciudad de México"}}
	svc := NewService(up, NewMemoryCache(8), time.Hour)

	r1, err := svc.Geocode(context.Background(), Request{Address: "Av. Reforma 123, CDMX"})
	require.NoError(t, err)
	r2, err := svc.Geocode(context.Background(), Request{Address: "  av. reforma   123, cdmx "})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 19.43, r2.Lat)
	assert.Equal(t, -99.13, r2.Lng)
	assert.Equal(t, int32(1), atomic.LoadInt32(&up.calls))

	missing := &stubUpstream{err: &apperr.NotFoundError{Resource: "geocode", Status: "ZERO_RESULTS"}}
	svc2 := NewService(missing, NewMemoryCache(8), time.Hour)
	for i := 0; i < 2; i++ {
		_, err := svc2.Geocode(context.Background(), Request{Address: "nowhere"})
		assert.True(t, apperr.IsNotFound(err))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&missing.calls))
}

func TestServiceWithoutTTLAlwaysQueries(t *testing.T) {
	up := &stubUpstream{result: &Result{Lat: 1, Lng: 2}}
	svc := NewService(up, NewMemoryCache(8), 0)
	for i := 0; i < 3; i++ {
		_, err := svc.Geocode(context.Background(), Request{Address: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&up.calls))
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(rc)
	ctx := context.Background()

	_, ok := c.Get(ctx, "geocode:missing")
	assert.False(t, ok)

	c.Set(ctx, "geocode:k", &Result{Lat: 19.43, Lng: -99.13, FormattedAddress: "x"}, time.Minute)
	got, ok := c.Get(ctx, "geocode:k")
	require.True(t, ok)
	assert.Equal(t, 19.43, got.Lat)
	assert.True(t, mr.TTL("geocode:k") > 0)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "geocode:k")
	assert.False(t, ok)
}

func TestRequestQueryAndKey(t *testing.T) {
	r := Request{Address: " Av. Reforma 123 ", City: "CDMX", State: ""}
	assert.Equal(t, "Av. Reforma 123, CDMX", r.Query())
	assert.Equal(t, r.CacheKey(), Request{Address: "av. reforma 123", City: "cdmx"}.CacheKey())
	assert.NotEqual(t, r.CacheKey(), Request{Address: "av. reforma 124", City: "cdmx"}.CacheKey())
}

func TestLRUEvictionAndExpiry(t *testing.T) {
	c := NewLRU[int](2)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	_, _ = c.Get("a")
	c.Set("c", 3, time.Minute)
	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("c")
	assert.False(t, ok)
}
