package zones

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection：导出全部区域，环按 GeoJSON 约定闭合（经度在前）
func FeatureCollection(zs []Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zs {
		f := geojson.NewFeature(orb.Polygon{z.Polygon.Ring()})
		f.ID = z.ID
		f.Properties["id"] = z.ID
		f.Properties["name"] = z.Name
		f.Properties["color"] = z.Color
		if z.Description != "" {
			f.Properties["description"] = z.Description
		}
		f.Properties["center"] = []float64{z.Center.Lng, z.Center.Lat}
		fc.Append(f)
	}
	return fc
}
