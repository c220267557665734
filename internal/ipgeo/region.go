package ipgeo

import (
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"

	"zone-api/internal/logger"
)

type regionSearcher interface {
	SearchByStr(ip string) (string, error)
}

// regionDB：ip2region 离线库，只提供地区文本（国家|区域|省|市|运营商），不含坐标
type regionDB struct {
	v4 regionSearcher
	v6 regionSearcher
}

// openRegion：两个路径都为空或都打开失败时返回 nil
func openRegion(v4Path, v6Path string) *regionDB {
	r := &regionDB{}
	if v4Path != "" {
		if s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path); err == nil {
			r.v4 = s
		} else {
			logger.L().Info("ip2region_disabled", "path", v4Path, "err", err)
		}
	}
	if v6Path != "" {
		if s, err := xdb.NewWithFileOnly(xdb.IPv6, v6Path); err == nil {
			r.v6 = s
		} else {
			logger.L().Info("ip2region_disabled", "path", v6Path, "err", err)
		}
	}
	if r.v4 == nil && r.v6 == nil {
		return nil
	}
	return r
}

// label：省与市拼接，如 "广东省 深圳市"
func (r *regionDB) label(ip string, v6 bool) string {
	if r == nil {
		return ""
	}
	s := r.v4
	if v6 {
		s = r.v6
	}
	if s == nil {
		return ""
	}
	text, err := s.SearchByStr(ip)
	if err != nil || text == "" {
		return ""
	}
	parts := strings.Split(text, "|")
	var out []string
	for _, i := range []int{2, 3} {
		if i < len(parts) && !blank(parts[i]) {
			out = append(out, parts[i])
		}
	}
	if len(out) == 0 && len(parts) > 0 && !blank(parts[0]) {
		out = append(out, parts[0])
	}
	return strings.Join(out, " ")
}

func blank(s string) bool {
	return s == "" || s == "0" || strings.EqualFold(s, "unknown")
}
