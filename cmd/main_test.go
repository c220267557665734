package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zone-api/internal/config"
	"zone-api/internal/maps"
)

func TestConfigJS(t *testing.T) {
	cfg := config.Config{APIBase: "/api", MapsCallback: "initZoneMap", MapsLibraries: []string{"drawing", "geometry"}}

	js := configJS(cfg, maps.NewCredentials(nil))
	assert.Contains(t, js, "window.__API_BASE__='/api'")
	assert.Contains(t, js, "window.__COMMIT_SHA__='dev'")
	assert.Contains(t, js, "window.__MAPS_SCRIPT_URL__=''")

	js = configJS(cfg, maps.NewCredentials(map[string]string{maps.CredentialBrowser: "abc"}))
	assert.Contains(t, js, "window.__MAPS_SCRIPT_URL__='https://maps.googleapis.com/maps/api/js?callback=initZoneMap&key=abc&libraries=drawing%2Cgeometry'")
}

func TestJSEscape(t *testing.T) {
	assert.Equal(t, `it\'s \x3c/script>`, jsEscape("it's </script>"))
}
