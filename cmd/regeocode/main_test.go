package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-api/internal/apperr"
	"zone-api/internal/zones"
)

type fakeSvc struct {
	mu   sync.Mutex
	seen []string
}

func (f *fakeSvc) RegeocodeLocation(ctx context.Context, id string) (*zones.Location, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()
	switch {
	case strings.HasPrefix(id, "missing"):
		return &zones.Location{ID: id}, apperr.NotFound("address", id)
	case strings.HasPrefix(id, "down"):
		return nil, &apperr.ServiceError{Provider: "google", Status: "OVER_QUERY_LIMIT"}
	}
	return &zones.Location{ID: id}, nil
}

func TestRunCountsOutcomes(t *testing.T) {
	svc := &fakeSvc{}
	s := run(context.Background(), svc, []string{"a", "b", "missing-1", "down-1", "c"}, 3, newMinuteLimiter(100))
	assert.Equal(t, int64(3), s.ok)
	assert.Equal(t, int64(1), s.notFound)
	assert.Equal(t, int64(1), s.failed)
	assert.ElementsMatch(t, []string{"a", "b", "missing-1", "down-1", "c"}, svc.seen)
}

func TestRunStopsWaitingOnCancel(t *testing.T) {
	ml := newMinuteLimiter(1)
	ml.now = func() time.Time { return time.Unix(600, 0) }
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	s := run(ctx, &fakeSvc{}, []string{"a", "b"}, 1, ml)
	assert.Equal(t, int64(1), s.ok)
	assert.Equal(t, int64(1), s.failed)
}

func TestMinuteLimiter(t *testing.T) {
	now := time.Unix(120, 0)
	ml := newMinuteLimiter(2)
	ml.now = func() time.Time { return now }
	assert.True(t, ml.allow())
	assert.True(t, ml.allow())
	assert.False(t, ml.allow())
	now = now.Add(time.Minute)
	assert.True(t, ml.allow())
}

func TestReadIDs(t *testing.T) {
	ids, err := readIDs(strings.NewReader("a\n\n  b  \nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
