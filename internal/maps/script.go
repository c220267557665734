package maps

import (
	"net/url"
	"strings"
)

const (
	DefaultScriptBase = "https://maps.googleapis.com/maps/api/js"
	DefaultCallback   = "initZoneMap"
)

// DefaultLibraries：绘制多边形与球面几何
var DefaultLibraries = []string{"drawing", "geometry"}

// ScriptURL：厂商 JS API 地址，携带凭据、库列表与全局回调名
func ScriptURL(base, key, callback string, libs []string) string {
	if base == "" {
		base = DefaultScriptBase
	}
	if callback == "" {
		callback = DefaultCallback
	}
	if len(libs) == 0 {
		libs = DefaultLibraries
	}
	q := url.Values{}
	q.Set("key", key)
	q.Set("libraries", strings.Join(libs, ","))
	q.Set("callback", callback)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
