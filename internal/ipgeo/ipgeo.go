// 包 ipgeo：按访客 IP 估算地图初始中心（MaxMind GeoLite2 City）
package ipgeo

import (
	"net"
	"net/http"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"zone-api/internal/geo"
	"zone-api/internal/logger"
)

// cityDB：geoip2.Reader 的最小子集
type cityDB interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// Center：查询结果，Source 为 geoip 或 default
type Center struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	City   string  `json:"city,omitempty"`
	Region string  `json:"region,omitempty"`
	Source string  `json:"source"`
}

// Locator：数据库缺失或查询失败时回退到默认中心
type Locator struct {
	db     cityDB
	region *regionDB
	def    geo.Point
}

type Option func(*Locator)

// WithRegionDB：附加 ip2region 离线库，仅用于补充地区文本
func WithRegionDB(v4Path, v6Path string) Option {
	return func(l *Locator) { l.region = openRegion(v4Path, v6Path) }
}

// Open：path 为空或文件无法打开时返回仅含默认中心的 Locator
func Open(path string, def geo.Point, opts ...Option) *Locator {
	l := &Locator{def: def}
	for _, o := range opts {
		o(l)
	}
	if path == "" {
		return l
	}
	r, err := geoip2.Open(path)
	if err != nil {
		logger.L().Info("geoip_disabled", "path", path, "err", err)
		return l
	}
	logger.L().Info("geoip_ready", "path", path)
	l.db = r
	return l
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Locator) fallback() Center {
	return Center{Lat: l.def.Lat, Lng: l.def.Lng, Source: "default"}
}

// Lookup：私有地址与非法 IP 直接回退；坐标只来自 GeoLite2，地区文本可来自 ip2region
func (l *Locator) Lookup(ipStr string) Center {
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return l.fallback()
	}
	c := l.lookupCity(ip)
	c.Region = l.region.label(ip.String(), ip.To4() == nil)
	return c
}

func (l *Locator) lookupCity(ip net.IP) Center {
	if l.db == nil {
		return l.fallback()
	}
	rec, err := l.db.City(ip)
	if err != nil {
		logger.L().Debug("geoip_lookup_error", "ip", ip.String(), "err", err)
		return l.fallback()
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return l.fallback()
	}
	c := Center{Lat: rec.Location.Latitude, Lng: rec.Location.Longitude, Source: "geoip"}
	if n, ok := rec.City.Names["en"]; ok {
		c.City = n
	}
	return c
}

// ClientIP：按代理头优先级提取访客 IP，最后回退到 RemoteAddr
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if i := strings.Index(strings.ToLower(x), "for="); i >= 0 {
			y := x[i+4:]
			if p := strings.IndexAny(y, ";,"); p >= 0 {
				y = y[:p]
			}
			y = strings.Trim(y, "\" ")
			return strings.TrimSuffix(strings.TrimPrefix(y, "["), "]")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
