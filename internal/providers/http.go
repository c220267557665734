package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
	"zone-api/internal/metrics"
)

// 文档注释：远端地理编码函数适配器
// 约束：POST {address,city,state}；200 返回坐标；404 且 status=ZERO_RESULTS 为零结果；其余状态统一视为服务错误
type HTTPProvider struct {
	name     string
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTP(name, endpoint, token string, client *http.Client) *HTTPProvider {
	if name == "" {
		name = "remote"
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPProvider{name: name, endpoint: endpoint, token: token, client: client}
}

func (h *HTTPProvider) Name() string { return h.name }

// Heartbeat：OPTIONS 预检返回 200 视为可用
func (h *HTTPProvider) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, h.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preflight returned %d", resp.StatusCode)
	}
	return nil
}

type remoteBody struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
	Error            string  `json:"error"`
	Status           string  `json:"status"`
}

func (h *HTTPProvider) Geocode(ctx context.Context, req geocode.Request) (*geocode.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	b, _ := json.Marshal(req)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("content-type", "application/json")
	if h.token != "" {
		hreq.Header.Set("authorization", "Bearer "+h.token)
	}
	t0 := time.Now()
	resp, err := h.client.Do(hreq)
	if err != nil {
		metrics.ObserveGeocode(h.name, "fail", time.Since(t0))
		logger.L().Error("remote_geocode_http_error", "name", h.name, "err", err)
		return nil, &apperr.ServiceError{Provider: h.name, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	var body remoteBody
	decErr := json.NewDecoder(resp.Body).Decode(&body)
	dur := time.Since(t0)
	switch {
	case resp.StatusCode == http.StatusOK && decErr == nil:
		metrics.ObserveGeocode(h.name, "ok", dur)
		return &geocode.Result{Lat: body.Lat, Lng: body.Lng, FormattedAddress: body.FormattedAddress}, nil
	case resp.StatusCode == http.StatusNotFound && body.Status == "ZERO_RESULTS":
		metrics.ObserveGeocode(h.name, "not_found", dur)
		return nil, &apperr.NotFoundError{Resource: "geocode", Key: req.Query(), Status: "ZERO_RESULTS"}
	}
	metrics.ObserveGeocode(h.name, "fail", dur)
	msg := body.Error
	if msg == "" && decErr != nil {
		msg = "decode response: " + decErr.Error()
	}
	return nil, &apperr.ServiceError{Provider: h.name, Status: body.Status, Code: resp.StatusCode, Message: msg}
}
