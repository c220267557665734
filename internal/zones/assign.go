package zones

import (
	"sort"

	"zone-api/internal/geo"
)

// Membership：点入多边形判定，地图库未就绪时 Ready 为 false 且 Contains 恒为 false
type Membership interface {
	Ready() bool
	Contains(poly geo.Polygon, pt geo.Point) bool
}

// Matching：包含该点的全部区域，按面积升序、创建时间、ID 排序
func Matching(zs []Zone, pt geo.Point, m Membership) []Zone {
	type cand struct {
		z    Zone
		area float64
	}
	var cs []cand
	for _, z := range zs {
		if m.Contains(z.Polygon, pt) {
			cs = append(cs, cand{z: z, area: geo.AreaM2(z.Polygon)})
		}
	}
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].area != cs[j].area {
			return cs[i].area < cs[j].area
		}
		if !cs[i].z.CreatedAt.Equal(cs[j].z.CreatedAt) {
			return cs[i].z.CreatedAt.Before(cs[j].z.CreatedAt)
		}
		return cs[i].z.ID < cs[j].z.ID
	})
	out := make([]Zone, len(cs))
	for i, c := range cs {
		out[i] = c.z
	}
	return out
}

// Assign：重叠时取最小区域，无匹配返回 nil
func Assign(zs []Zone, pt geo.Point, m Membership) *string {
	ms := Matching(zs, pt, m)
	if len(ms) == 0 {
		return nil
	}
	id := ms[0].ID
	return &id
}
