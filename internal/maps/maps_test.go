package maps

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-api/internal/apperr"
	"zone-api/internal/geo"
)

type transitions struct {
	mu  sync.Mutex
	log []string
}

func (tr *transitions) observe(key string, s State) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.log = append(tr.log, key+":"+s.String())
}

func (tr *transitions) count(entry string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	n := 0
	for _, e := range tr.log {
		if e == entry {
			n++
		}
	}
	return n
}

func waitLoaded(t *testing.T, h *Handle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
}

func TestLoadSameCredentialTwiceFetchesOnce(t *testing.T) {
	var fetches int32
	release := make(chan struct{})
	tr := &transitions{}
	l := NewLoader(func(ctx context.Context, key string) error {
		atomic.AddInt32(&fetches, 1)
		<-release
		return nil
	}, WithObserver(tr.observe))

	h1, err := l.Load(context.Background(), "key-a")
	require.NoError(t, err)
	assert.Equal(t, Loading, l.State())

	h2, err := l.Load(context.Background(), "key-a")
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	close(release)
	waitLoaded(t, h1)

	h3, err := l.Load(context.Background(), "key-a")
	require.NoError(t, err)
	assert.Same(t, h1, h3)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	assert.Equal(t, 1, tr.count("key-a:loaded"))
	assert.Equal(t, 1, tr.count("key-a:loading"))
	assert.True(t, l.Ready())
}

func TestLoadDifferentCredentialRestarts(t *testing.T) {
	var mu sync.Mutex
	var fetched []string
	startedA := make(chan struct{})
	l := NewLoader(func(ctx context.Context, key string) error {
		mu.Lock()
		fetched = append(fetched, key)
		mu.Unlock()
		if key == "key-a" {
			close(startedA)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	ha, err := l.Load(context.Background(), "key-a")
	require.NoError(t, err)
	<-startedA
	hb, err := l.Load(context.Background(), "key-b")
	require.NoError(t, err)
	assert.NotSame(t, ha, hb)

	waitLoaded(t, hb)
	<-ha.Done()
	assert.ErrorIs(t, ha.Err(), ErrSuperseded)
	assert.Equal(t, Failed, ha.State())
	assert.Equal(t, "key-b", l.Current().Key())
	assert.True(t, l.Ready())

	mu.Lock()
	assert.Equal(t, []string{"key-a", "key-b"}, fetched)
	mu.Unlock()
}

func TestLoadEmptyCredential(t *testing.T) {
	l := NewLoader(LocalFetcher())
	h, err := l.Load(context.Background(), "")
	assert.Nil(t, h)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, Unloaded, l.State())
}

func TestFailedIsTerminalUntilUnload(t *testing.T) {
	var fetches int32
	l := NewLoader(func(ctx context.Context, key string) error {
		if atomic.AddInt32(&fetches, 1) == 1 {
			return errors.New("script blocked")
		}
		return nil
	})
	h, err := l.Load(context.Background(), "k")
	require.NoError(t, err)
	<-h.Done()
	assert.Equal(t, Failed, l.State())

	h2, _ := l.Load(context.Background(), "k")
	assert.Same(t, h, h2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	l.Unload()
	assert.Equal(t, Unloaded, l.State())
	h3, _ := l.Load(context.Background(), "k")
	waitLoaded(t, h3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestCallerCancelDoesNotAbortLoad(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(func(ctx context.Context, key string) error {
		<-release
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	h, err := l.Load(ctx, "k")
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.Canceled)
	close(release)
	waitLoaded(t, h)
	assert.Equal(t, Loaded, h.State())
}

func TestOnLoadedRunsAfterLoad(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader(func(ctx context.Context, key string) error {
		<-release
		return nil
	})
	var calls int32
	l.OnLoaded(func() { atomic.AddInt32(&calls, 1) })
	_, err := l.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	close(release)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	var late int32
	l.OnLoaded(func() { atomic.AddInt32(&late, 1) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&late))
}

func TestOnLoadedSkipsFailure(t *testing.T) {
	l := NewLoader(func(ctx context.Context, key string) error { return errors.New("blocked") })
	var calls int32
	l.OnLoaded(func() { atomic.AddInt32(&calls, 1) })
	h, err := l.Load(context.Background(), "k")
	require.NoError(t, err)
	<-h.Done()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestHTTPFetcher(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		if got.Get("key") == "bad" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("/* maps */"))
	}))
	defer srv.Close()

	fetch := HTTPFetcher(srv.Client(), srv.URL+"/maps/api/js", "cb", nil)
	require.NoError(t, fetch(context.Background(), "good"))
	assert.Equal(t, "drawing,geometry", got.Get("libraries"))
	assert.Equal(t, "cb", got.Get("callback"))

	err := fetch(context.Background(), "bad")
	se, ok := apperr.AsService(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestScriptURL(t *testing.T) {
	u := ScriptURL("", "abc", "", nil)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/js?callback=initZoneMap&key=abc&libraries=drawing%2Cgeometry", u)
}

func TestEngineFailsClosedUntilLoaded(t *testing.T) {
	square := geo.Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}}
	in := geo.Point{Lat: 1, Lng: 1}
	release := make(chan struct{})
	l := NewLoader(func(ctx context.Context, key string) error { <-release; return nil })
	e := NewEngine(l)

	assert.False(t, e.Contains(square, in))
	assert.Zero(t, e.Distance(in, geo.Point{Lat: 0, Lng: 0}))

	h, _ := l.Load(context.Background(), "k")
	assert.False(t, e.Contains(square, in))
	close(release)
	waitLoaded(t, h)

	assert.True(t, e.Contains(square, in))
	assert.False(t, e.Contains(square, geo.Point{Lat: 3, Lng: 3}))
	assert.Greater(t, e.Distance(in, geo.Point{Lat: 0, Lng: 0}), 0.0)

	var nilEngine *Engine
	assert.False(t, nilEngine.Contains(square, in))
}

func TestCredentials(t *testing.T) {
	c := NewCredentials(map[string]string{CredentialBrowser: " k1 ", CredentialGeocoding: ""})
	assert.Equal(t, "k1", c.Get(CredentialBrowser))
	assert.False(t, c.Has(CredentialGeocoding))
	c.Set(CredentialBrowser, "")
	assert.False(t, c.Has(CredentialBrowser))
}
