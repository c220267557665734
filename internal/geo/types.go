// 包 geo：本地几何计算（点入多边形、球面距离、质心、包围盒）
// 约束：坐标均为 WGS84 经纬度；多边形为单环，不要求首尾重复
package geo

import (
	"fmt"
	"math"
)

// Point：经纬度坐标
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string { return fmt.Sprintf("%g,%g", p.Lat, p.Lng) }

// Valid：纬度 [-90,90]、经度 [-180,180] 且非 NaN
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Polygon：有序顶点序列（单环）
type Polygon []Point

// BBox：minLng, minLat, maxLng, maxLat
type BBox [4]float64

// Normalize：去掉与首顶点重复的闭合顶点，返回新切片
func (poly Polygon) Normalize() Polygon {
	out := append(Polygon(nil), poly...)
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Distinct：不同顶点数量
func (poly Polygon) Distinct() int {
	seen := make(map[Point]struct{}, len(poly))
	for _, p := range poly {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func (poly Polygon) BBox() BBox {
	b := BBox{180, 90, -180, -90}
	for _, pt := range poly {
		if pt.Lng < b[0] {
			b[0] = pt.Lng
		}
		if pt.Lat < b[1] {
			b[1] = pt.Lat
		}
		if pt.Lng > b[2] {
			b[2] = pt.Lng
		}
		if pt.Lat > b[3] {
			b[3] = pt.Lat
		}
	}
	return b
}

func (b BBox) Contains(pt Point) bool {
	return pt.Lng >= b[0] && pt.Lng <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}
