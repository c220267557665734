package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_http_requests_total",
		Help: "Total HTTP requests by method and status",
	}, []string{"method", "status"})
	HTTPDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "zoneapi_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: msBuckets,
	})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_requests_total",
		Help: "Total upstream geocoding requests",
	}, []string{"provider"})
	GeocodeSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_success_total",
		Help: "Upstream geocoding requests that resolved coordinates",
	}, []string{"provider"})
	GeocodeNotFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_not_found_total",
		Help: "Upstream geocoding requests with zero results",
	}, []string{"provider"})
	GeocodeFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_fail_total",
		Help: "Upstream geocoding failures",
	}, []string{"provider"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zoneapi_geocode_duration_ms",
		Help:    "Upstream geocoding duration in milliseconds",
		Buckets: msBuckets,
	}, []string{"provider"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_cache_hits_total",
		Help: "Geocode cache hits by backend",
	}, []string{"backend"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_geocode_cache_misses_total",
		Help: "Geocode cache misses by backend",
	}, []string{"backend"})
	MapLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_map_loads_total",
		Help: "Map library load transitions by resulting state",
	}, []string{"state"})
	ProviderHeartbeatTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zoneapi_provider_heartbeat_total",
		Help: "Geocoding provider heartbeat count by status",
	}, []string{"provider", "status"})
	ZoneReassignedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zoneapi_zone_reassigned_total",
		Help: "Locations whose zone assignment changed during reassignment",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPDurationMs,
		GeocodeRequestsTotal,
		GeocodeSuccessTotal,
		GeocodeNotFoundTotal,
		GeocodeFailTotal,
		GeocodeDurationMs,
		CacheHitsTotal,
		CacheMissesTotal,
		MapLoadsTotal,
		ProviderHeartbeatTotal,
		ZoneReassignedTotal,
	)
}

// ObserveHTTP：访问中间件调用，按方法与状态码计数
func ObserveHTTP(method string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPDurationMs.Observe(float64(d.Milliseconds()))
}

// ObserveGeocode：记录一次上游地理编码调用的结果
// outcome 取 ok / not_found / fail
func ObserveGeocode(provider, outcome string, d time.Duration) {
	GeocodeRequestsTotal.WithLabelValues(provider).Inc()
	GeocodeDurationMs.WithLabelValues(provider).Observe(float64(d.Milliseconds()))
	switch outcome {
	case "ok":
		GeocodeSuccessTotal.WithLabelValues(provider).Inc()
	case "not_found":
		GeocodeNotFoundTotal.WithLabelValues(provider).Inc()
	default:
		GeocodeFailTotal.WithLabelValues(provider).Inc()
	}
}

// Handler：暴露已注册指标，主入口挂载到 {API_BASE}/metrics
func Handler() http.Handler { return promhttp.Handler() }
