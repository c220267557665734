package amap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
	"zone-api/internal/metrics"
)

const DefaultEndpoint = "https://restapi.amap.com/v3/geocode/geo"

// 文档注释：高德地理编码响应
// 约束：status="1" 为成功；count="0" 视为零结果；location 为 "经度,纬度" 文本（GCJ-02）
type GeoResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
	Count    string `json:"count"`
	Geocodes []struct {
		FormattedAddress string `json:"formatted_address"`
		Location         string `json:"location"`
	} `json:"geocodes"`
}

// Client：高德 Web 服务地理编码
type Client struct {
	endpoint string
	creds    *maps.Credentials
	http     *http.Client
}

func New(endpoint string, creds *maps.Credentials, client *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{endpoint: endpoint, creds: creds, http: client}
}

func (c *Client) Name() string { return "amap" }

func (c *Client) Heartbeat(ctx context.Context) error {
	if !c.creds.Has(maps.CredentialAMap) {
		return &apperr.ServiceError{Provider: "amap", Status: "MISSING_CREDENTIAL"}
	}
	return nil
}

// Geocode：州拼入地址，城市走 city 参数；国内坐标由 GCJ-02 转回 WGS84
func (c *Client) Geocode(ctx context.Context, req geocode.Request) (*geocode.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := c.creds.Get(maps.CredentialAMap)
	if key == "" {
		return nil, &apperr.ServiceError{Provider: "amap", Status: "MISSING_CREDENTIAL", Message: "amap key not configured"}
	}
	addr := strings.TrimSpace(req.Address)
	if s := strings.TrimSpace(req.State); s != "" {
		addr = s + addr
	}
	q := url.Values{}
	q.Set("key", key)
	q.Set("address", addr)
	if city := strings.TrimSpace(req.City); city != "" {
		q.Set("city", city)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	t0 := time.Now()
	logger.L().Debug("amap_req", "address", addr)
	resp, err := c.http.Do(hreq)
	if err != nil {
		logger.L().Error("amap_http_error", "err", err)
		metrics.ObserveGeocode("amap", "fail", time.Since(t0))
		return nil, &apperr.ServiceError{Provider: "amap", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	var r GeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("amap_decode_error", "err", err)
		metrics.ObserveGeocode("amap", "fail", time.Since(t0))
		return nil, &apperr.ServiceError{Provider: "amap", Code: resp.StatusCode, Message: "decode response", Err: err}
	}
	dur := time.Since(t0)
	logger.L().Debug("amap_resp", "status", r.Status, "infocode", r.Infocode, "count", r.Count, "duration_ms", dur.Milliseconds())
	if r.Status != "1" {
		metrics.ObserveGeocode("amap", "fail", dur)
		return nil, &apperr.ServiceError{Provider: "amap", Status: r.Infocode, Code: resp.StatusCode, Message: r.Info}
	}
	if r.Count == "0" || len(r.Geocodes) == 0 {
		metrics.ObserveGeocode("amap", "not_found", dur)
		return nil, &apperr.NotFoundError{Resource: "geocode", Key: req.Query(), Status: "ZERO_RESULTS"}
	}
	lat, lng, err := parseLocation(r.Geocodes[0].Location)
	if err != nil {
		metrics.ObserveGeocode("amap", "fail", dur)
		return nil, &apperr.ServiceError{Provider: "amap", Status: r.Infocode, Message: "bad location", Err: err}
	}
	lat, lng = GCJ02ToWGS84(lat, lng)
	metrics.ObserveGeocode("amap", "ok", dur)
	return &geocode.Result{Lat: lat, Lng: lng, FormattedAddress: r.Geocodes[0].FormattedAddress}, nil
}

func parseLocation(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("location %q: want lng,lat", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}
