package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Ring：转换为闭合的 orb 环（X=经度，Y=纬度）
func (poly Polygon) Ring() orb.Ring {
	r := make(orb.Ring, 0, len(poly)+1)
	for _, p := range poly {
		r = append(r, orb.Point{p.Lng, p.Lat})
	}
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// Centroid：面积加权质心；面积为零（共线）时退化为顶点平均
func Centroid(poly Polygon) Point {
	if len(poly) == 0 {
		return Point{}
	}
	c, area := planar.CentroidArea(orb.Polygon{poly.Ring()})
	if area != 0 {
		return Point{Lat: c.Y(), Lng: c.X()}
	}
	var sum Point
	for _, p := range poly {
		sum.Lat += p.Lat
		sum.Lng += p.Lng
	}
	n := float64(len(poly))
	return Point{Lat: sum.Lat / n, Lng: sum.Lng / n}
}

// AreaM2：球面近似面积（平方米），用于重叠区域的优先级比较
func AreaM2(poly Polygon) float64 {
	if len(poly) < 3 {
		return 0
	}
	return math.Abs(orbgeo.Area(orb.Polygon{poly.Ring()}))
}
