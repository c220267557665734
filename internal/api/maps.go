package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"zone-api/internal/apperr"
	"zone-api/internal/geo"
	"zone-api/internal/ipgeo"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
)

// LocalKey：未配置浏览器端密钥时使用的加载标识
const LocalKey = "local"

// LoadKey：浏览器端密钥，缺省为 LocalKey
func LoadKey(c *maps.Credentials) string {
	if c != nil {
		if k := c.Get(maps.CredentialBrowser); k != "" {
			return k
		}
	}
	return LocalKey
}

func parsePoint(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, apperr.Validation("point", "expected lat,lng")
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	p := geo.Point{Lat: lat, Lng: lng}
	if err1 != nil || err2 != nil || !p.Valid() {
		return geo.Point{}, apperr.Validation("point", "invalid coordinate "+s)
	}
	return p, nil
}

func (h *handler) distance(w http.ResponseWriter, r *http.Request) {
	from, err := parsePoint(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	to, err := parsePoint(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if !h.Engine.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "map library not loaded", Status: h.Loader.State().String()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "meters": h.Engine.Distance(from, to)})
}

type mapsStatus struct {
	State     string `json:"state"`
	Ready     bool   `json:"ready"`
	Error     string `json:"error,omitempty"`
	Providers any    `json:"providers,omitempty"`
}

func (h *handler) status() mapsStatus {
	st := mapsStatus{State: h.Loader.State().String(), Ready: h.Engine.Ready()}
	if cur := h.Loader.Current(); cur != nil {
		if err := cur.Err(); err != nil {
			st.Error = err.Error()
		}
	}
	if h.Providers != nil {
		st.Providers = h.Providers.Statuses()
	}
	return st
}

func (h *handler) mapsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// mapsLoad：需 x-admin-token；可在请求体中替换浏览器端密钥，失败状态会先卸载再重试
func (h *handler) mapsLoad(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if h.AdminToken == "" || subtle.ConstantTimeCompare([]byte(t), []byte(h.AdminToken)) != 1 {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return
	}
	var body struct {
		Key string `json:"key"`
	}
	if r.ContentLength > 0 {
		if err := decode(w, r, &body); err != nil {
			writeError(w, r, err, nil)
			return
		}
	}
	if k := strings.TrimSpace(body.Key); k != "" && h.Credentials != nil {
		h.Credentials.Set(maps.CredentialBrowser, k)
	}
	if h.Loader.State() == maps.Failed {
		h.Loader.Unload()
	}
	if _, err := h.Loader.Load(context.WithoutCancel(r.Context()), LoadKey(h.Credentials)); err != nil {
		writeError(w, r, err, nil)
		return
	}
	logger.L().Info("maps_load_requested", "state", h.Loader.State().String())
	writeJSON(w, http.StatusAccepted, h.status())
}

func (h *handler) mapsCenter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Locator.Lookup(ipgeo.ClientIP(r)))
}
