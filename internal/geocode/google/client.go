// 包 google：Google Geocoding REST 客户端
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
	"zone-api/internal/maps"
	"zone-api/internal/metrics"
)

const DefaultEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// 文档注释：Geocoding API 响应，仅解析坐标与规范化地址
type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Client：每次调用从凭据存储读取密钥，便于运行期轮换
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

func (c *Client) Name() string { return "google" }

// Heartbeat：仅检查凭据是否存在，不消耗配额
func (c *Client) Heartbeat(ctx context.Context) error {
	if !c.creds.Has(maps.CredentialGeocoding) {
		return &apperr.ServiceError{Provider: "google", Status: "MISSING_CREDENTIAL"}
	}
	return nil
}

// Geocode：单次请求；ZERO_RESULTS → NotFoundError，其余非 OK → ServiceError
func (c *Client) Geocode(ctx context.Context, req geocode.Request) (*geocode.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := c.creds.Get(maps.CredentialGeocoding)
	if key == "" {
		return nil, &apperr.ServiceError{Provider: "google", Status: "MISSING_CREDENTIAL", Message: "geocoding API key not configured"}
	}
	q := url.Values{}
	q.Set("address", req.Query())
	q.Set("key", key)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	t0 := time.Now()
	logger.L().Debug("google_geocode_req", "query", req.Query())
	resp, err := c.http.Do(hreq)
	if err != nil {
		metrics.ObserveGeocode("google", "fail", time.Since(t0))
		logger.L().Error("google_http_error", "err", err)
		return nil, &apperr.ServiceError{Provider: "google", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		metrics.ObserveGeocode("google", "fail", time.Since(t0))
		logger.L().Error("google_decode_error", "err", err, "code", resp.StatusCode)
		return nil, &apperr.ServiceError{Provider: "google", Code: resp.StatusCode, Message: "decode response", Err: err}
	}
	dur := time.Since(t0)
	logger.L().Debug("google_geocode_resp", "status", r.Status, "results", len(r.Results), "duration_ms", dur.Milliseconds())
	switch {
	case r.Status == "ZERO_RESULTS" || (r.Status == "OK" && len(r.Results) == 0):
		metrics.ObserveGeocode("google", "not_found", dur)
		return nil, &apperr.NotFoundError{Resource: "geocode", Key: req.Query(), Status: "ZERO_RESULTS"}
	case r.Status != "OK":
		metrics.ObserveGeocode("google", "fail", dur)
		msg := r.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("geocoding failed with status %s", r.Status)
		}
		return nil, &apperr.ServiceError{Provider: "google", Status: r.Status, Code: resp.StatusCode, Message: msg}
	}
	metrics.ObserveGeocode("google", "ok", dur)
	top := r.Results[0]
	return &geocode.Result{
		Lat:              top.Geometry.Location.Lat,
		Lng:              top.Geometry.Location.Lng,
		FormattedAddress: top.FormattedAddress,
	}, nil
}
