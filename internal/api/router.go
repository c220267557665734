// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zone-api/internal/geocode"
	"zone-api/internal/ipgeo"
	"zone-api/internal/maps"
	"zone-api/internal/middleware"
	"zone-api/internal/providers"
	"zone-api/internal/zones"
)

// Deps：路由依赖，由主入口组装
type Deps struct {
	Zones       *zones.Service
	Geocoder    geocode.Geocoder
	Loader      *maps.Loader
	Engine      *maps.Engine
	Credentials *maps.Credentials
	Providers   *providers.Manager
	Locator     *ipgeo.Locator
	AdminToken  string
	CORSOrigins []string
}

type handler struct {
	Deps
}

// BuildRoutes：返回挂载到 API 前缀下的路由
func BuildRoutes(d Deps) http.Handler {
	h := &handler{Deps: d}
	r := chi.NewRouter()
	r.Use(middleware.CORS(d.CORSOrigins, 3600))

	r.Post("/geocode", h.geocode)

	r.Route("/zones", func(r chi.Router) {
		r.Get("/", h.listZones)
		r.Post("/", h.createZone)
		r.Get("/statistics", h.allStatistics)
		r.Get("/export.geojson", h.exportGeoJSON)
		r.Get("/at", h.zonesAt)
		r.Get("/{id}", h.getZone)
		r.Put("/{id}", h.updateZone)
		r.Delete("/{id}", h.deleteZone)
		r.Get("/{id}/statistics", h.zoneStatistics)
		r.Post("/{id}/contains", h.containsPoint)
	})

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", h.listLocations)
		r.Post("/", h.submitLocation)
		r.Get("/{id}", h.getLocation)
		r.Post("/{id}/geocode", h.regeocodeLocation)
	})

	r.Get("/distance", h.distance)

	r.Get("/maps/status", h.mapsStatus)
	r.Post("/maps/load", h.mapsLoad)
	r.Get("/maps/center", h.mapsCenter)
	return r
}
