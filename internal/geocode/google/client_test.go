package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/maps"
)

func newServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func creds() *maps.Credentials {
	return maps.NewCredentials(map[string]string{maps.CredentialGeocoding: "test-key"})
}

func TestGeocodeOKExactCoordinates(t *testing.T) {
	var hits int32
	srv := newServer(t, `{"status":"OK","results":[{"formatted_address":"Av. Reforma 123, Ciudad de México","geometry":{"location":{"lat":19.43,"lng":-99.13}}}]}`, &hits)
	c := New(srv.URL, creds(), srv.Client())

	r, err := c.Geocode(context.Background(), geocode.Request{Address: "Av. Reforma 123, CDMX"})
	require.NoError(t, err)
	assert.Equal(t, 19.43, r.Lat)
	assert.Equal(t, -99.13, r.Lng)
	assert.Equal(t, "Av. Reforma 123, Ciudad de México", r.FormattedAddress)
}

func TestGeocodeZeroResults(t *testing.T) {
	var hits int32
	srv := newServer(t, `{"status":"ZERO_RESULTS","results":[]}`, &hits)
	c := New(srv.URL, creds(), srv.Client())

	r, err := c.Geocode(context.Background(), geocode.Request{Address: "Calle Inexistente 999"})
	assert.Nil(t, r)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ZERO_RESULTS", nf.Status)
}

func TestGeocodeUpstreamError(t *testing.T) {
	var hits int32
	srv := newServer(t, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`, &hits)
	c := New(srv.URL, creds(), srv.Client())

	_, err := c.Geocode(context.Background(), geocode.Request{Address: "x"})
	se, ok := apperr.AsService(err)
	require.True(t, ok)
	assert.Equal(t, "REQUEST_DENIED", se.Status)
	assert.Equal(t, "The provided API key is invalid.", se.Message)
}

func TestGeocodeValidatesBeforeNetwork(t *testing.T) {
	var hits int32
	srv := newServer(t, `{}`, &hits)
	c := New(srv.URL, creds(), srv.Client())

	_, err := c.Geocode(context.Background(), geocode.Request{Address: ""})
	assert.True(t, apperr.IsInvalidInput(err))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestGeocodeMissingCredential(t *testing.T) {
	c := New("http://127.0.0.1:1", maps.NewCredentials(nil), nil)
	_, err := c.Geocode(context.Background(), geocode.Request{Address: "x"})
	se, ok := apperr.AsService(err)
	require.True(t, ok)
	assert.Equal(t, "MISSING_CREDENTIAL", se.Status)
	assert.Error(t, c.Heartbeat(context.Background()))
}
