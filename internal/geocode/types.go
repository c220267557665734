// 包 geocode：地址 → 坐标的请求模型、输入校验、结果缓存与编排
package geocode

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"zone-api/internal/apperr"
)

// Request：自由文本地址，城市/州可选
type Request struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
}

// Result：上游原样返回的坐标与规范化地址，不做舍入
type Result struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Geocoder：上游地理编码契约
// 约束：零结果返回 *apperr.NotFoundError；其余非成功返回 *apperr.ServiceError
type Geocoder interface {
	Geocode(ctx context.Context, req Request) (*Result, error)
}

// Validate：地址为空时返回 InvalidInputError
func (r Request) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return apperr.InvalidInput("address", "address is required")
	}
	return nil
}

// Query：拼接为上游使用的单行地址
func (r Request) Query() string {
	parts := []string{strings.TrimSpace(r.Address)}
	if c := strings.TrimSpace(r.City); c != "" {
		parts = append(parts, c)
	}
	if s := strings.TrimSpace(r.State); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// CacheKey：规范化（小写、压缩空白）后的查询摘要
func (r Request) CacheKey() string {
	norm := strings.Join(strings.Fields(strings.ToLower(r.Query())), " ")
	sum := sha1.Sum([]byte(norm))
	return "geocode:" + hex.EncodeToString(sum[:])
}
