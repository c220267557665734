package maps

import "zone-api/internal/geo"

// Engine：依赖加载状态的几何查询
// 约束：地图库未处于 Loaded 时一律返回 false / 0，由调用方先检查 Ready
type Engine struct {
	loader *Loader
}

func NewEngine(l *Loader) *Engine { return &Engine{loader: l} }

func (e *Engine) Ready() bool { return e != nil && e.loader != nil && e.loader.Ready() }

func (e *Engine) Contains(poly geo.Polygon, pt geo.Point) bool {
	if !e.Ready() {
		return false
	}
	return geo.Contains(poly, pt)
}

// Distance：两点球面距离（米）
func (e *Engine) Distance(a, b geo.Point) float64 {
	if !e.Ready() {
		return 0
	}
	return geo.Distance(a, b)
}
