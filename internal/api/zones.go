package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zone-api/internal/geo"
	"zone-api/internal/zones"
)

func (h *handler) listZones(w http.ResponseWriter, r *http.Request) {
	zs, err := h.Zones.ListZones(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if zs == nil {
		zs = []zones.Zone{}
	}
	writeJSON(w, http.StatusOK, zs)
}

func (h *handler) createZone(w http.ResponseWriter, r *http.Request) {
	var in zones.ZoneInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, nil)
		return
	}
	z, err := h.Zones.CreateZone(r.Context(), in)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

func (h *handler) getZone(w http.ResponseWriter, r *http.Request) {
	z, err := h.Zones.GetZone(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (h *handler) updateZone(w http.ResponseWriter, r *http.Request) {
	var in zones.ZoneInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, nil)
		return
	}
	z, err := h.Zones.UpdateZone(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (h *handler) deleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.Zones.DeleteZone(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) zoneStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := h.Zones.Statistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) allStatistics(w http.ResponseWriter, r *http.Request) {
	sts, err := h.Zones.AllStatistics(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, sts)
}

func (h *handler) containsPoint(w http.ResponseWriter, r *http.Request) {
	var pt geo.Point
	if err := decode(w, r, &pt); err != nil {
		writeError(w, r, err, nil)
		return
	}
	in, err := h.Zones.ContainsPoint(r.Context(), chi.URLParam(r, "id"), pt)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contains": in, "ready": h.Engine.Ready()})
}

// zonesAt：?point=lat,lng 处的全部区域，按归属优先级排序；地图库未就绪时为空
func (h *handler) zonesAt(w http.ResponseWriter, r *http.Request) {
	pt, err := parsePoint(r.URL.Query().Get("point"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	zs, err := h.Zones.ZonesAt(r.Context(), pt)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"point": pt, "zones": zs, "ready": h.Engine.Ready()})
}

func (h *handler) exportGeoJSON(w http.ResponseWriter, r *http.Request) {
	zs, err := h.Zones.ListZones(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	w.Header().Set("content-type", "application/geo+json")
	w.Header().Set("content-disposition", `attachment; filename="zones.geojson"`)
	_ = json.NewEncoder(w).Encode(zones.FeatureCollection(zs))
}

func (h *handler) listLocations(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Zones.ListLocations(r.Context())
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	if ls == nil {
		ls = []zones.Location{}
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *handler) getLocation(w http.ResponseWriter, r *http.Request) {
	l, err := h.Zones.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// submitLocation：地理编码失败但记录已保存时，错误响应携带该记录
func (h *handler) submitLocation(w http.ResponseWriter, r *http.Request) {
	var in zones.LocationInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, nil)
		return
	}
	l, err := h.Zones.SubmitLocation(r.Context(), in)
	if err != nil {
		writeError(w, r, err, locationOrNil(l))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) regeocodeLocation(w http.ResponseWriter, r *http.Request) {
	l, err := h.Zones.RegeocodeLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, locationOrNil(l))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func locationOrNil(l *zones.Location) any {
	if l == nil {
		return nil
	}
	return l
}
