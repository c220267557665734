package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 墨西哥城中心附近的矩形
var cdmx = Polygon{
	{Lat: 19.40, Lng: -99.20},
	{Lat: 19.40, Lng: -99.10},
	{Lat: 19.48, Lng: -99.10},
	{Lat: 19.48, Lng: -99.20},
}

func TestContainsInsideAndOutside(t *testing.T) {
	assert.True(t, Contains(cdmx, Point{Lat: 19.43, Lng: -99.13}))
	assert.True(t, Contains(cdmx, Point{Lat: 19.41, Lng: -99.19}))
	assert.False(t, Contains(cdmx, Point{Lat: 19.50, Lng: -99.13}))
	assert.False(t, Contains(cdmx, Point{Lat: 19.43, Lng: -99.05}))
	assert.False(t, Contains(cdmx[:2], Point{Lat: 19.43, Lng: -99.13}))
}

func TestContainsConcave(t *testing.T) {
	// U 形：凹口内的点在凸包内但不在多边形内
	u := Polygon{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 3}, {Lat: 3, Lng: 3}, {Lat: 3, Lng: 2},
		{Lat: 1, Lng: 2}, {Lat: 1, Lng: 1}, {Lat: 3, Lng: 1}, {Lat: 3, Lng: 0},
	}
	assert.True(t, Contains(u, Point{Lat: 0.5, Lng: 1.5}))
	assert.True(t, Contains(u, Point{Lat: 2, Lng: 0.5}))
	assert.False(t, Contains(u, Point{Lat: 2, Lng: 1.5}))
}

func TestContainsTriangleGrid(t *testing.T) {
	tri := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 0}}
	for lat := 0.5; lat < 10; lat++ {
		for lng := 0.5; lng < 10; lng++ {
			if lat+lng == 10 {
				continue
			}
			want := lat+lng < 10
			assert.Equal(t, want, Contains(tri, Point{Lat: lat, Lng: lng}), "%v,%v", lat, lng)
		}
	}
}

func TestNormalizeDropsClosingVertex(t *testing.T) {
	closed := append(append(Polygon{}, cdmx...), cdmx[0])
	n := closed.Normalize()
	assert.Len(t, n, 4)
	assert.Len(t, closed, 5)
	assert.Equal(t, 4, n.Distinct())
}

func TestDistanceHaversine(t *testing.T) {
	assert.Zero(t, Distance(Point{Lat: 19.43, Lng: -99.13}, Point{Lat: 19.43, Lng: -99.13}))
	// 赤道上 1 度经度约 111.195 km
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111195.08, d, 1)
	// CDMX → Guadalajara 约 461 km
	d2 := Distance(Point{Lat: 19.4326, Lng: -99.1332}, Point{Lat: 20.6597, Lng: -103.3496})
	assert.InDelta(t, 461000, d2, 5000)
}

func TestCentroid(t *testing.T) {
	c := Centroid(cdmx)
	assert.InDelta(t, 19.44, c.Lat, 1e-9)
	assert.InDelta(t, -99.15, c.Lng, 1e-9)

	line := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	c2 := Centroid(line)
	assert.InDelta(t, 1, c2.Lat, 1e-9)
	assert.InDelta(t, 1, c2.Lng, 1e-9)
}

func TestAreaOrdersBySize(t *testing.T) {
	small := Polygon{{Lat: 19.42, Lng: -99.14}, {Lat: 19.42, Lng: -99.12}, {Lat: 19.44, Lng: -99.12}, {Lat: 19.44, Lng: -99.14}}
	assert.Greater(t, AreaM2(cdmx), AreaM2(small))
	assert.Greater(t, AreaM2(small), 0.0)
}

func TestSelfIntersects(t *testing.T) {
	assert.False(t, SelfIntersects(cdmx))
	bowtie := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}, {Lat: 0, Lng: 1}}
	assert.True(t, SelfIntersects(bowtie))
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 19.43, Lng: -99.13}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.Valid())
}
