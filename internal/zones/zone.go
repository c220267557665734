// 包 zones：区域与地理编码位置的领域模型、区域归属计算、区域统计与编排服务
package zones

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"zone-api/internal/apperr"
	"zone-api/internal/geo"
)

const DefaultColor = "#3b82f6"

// Zone：用户在地图上绘制的命名多边形区域
type Zone struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Color       string      `json:"color"`
	Polygon     geo.Polygon `json:"polygon"`
	Center      geo.Point   `json:"center"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ZoneInput：创建/更新区域的用户输入
type ZoneInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
	Polygon     geo.Polygon `json:"polygon"`
}

// normalize：校验并返回规范化的名称、颜色与顶点
func (in ZoneInput) normalize() (name, color string, poly geo.Polygon, err error) {
	name = strings.TrimSpace(in.Name)
	if name == "" {
		return "", "", nil, apperr.Validation("name", "zone name is required")
	}
	poly = in.Polygon.Normalize()
	if poly.Distinct() < 3 {
		return "", "", nil, apperr.Validation("polygon", "polygon needs at least 3 vertices")
	}
	for _, p := range poly {
		if !p.Valid() {
			return "", "", nil, apperr.Validation("polygon", "vertex "+p.String()+" out of range")
		}
	}
	color = strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultColor
	}
	return name, color, poly, nil
}

// NewZone：名称为空或顶点不足 3 个时返回 ValidationError，否则生成带质心的区域
func NewZone(in ZoneInput, now time.Time) (*Zone, error) {
	name, color, poly, err := in.normalize()
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Zone{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
		Polygon:     poly,
		Center:      geo.Centroid(poly),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply：以新输入覆盖区域，重算质心
func (z *Zone) Apply(in ZoneInput, now time.Time) error {
	name, color, poly, err := in.normalize()
	if err != nil {
		return err
	}
	z.Name = name
	z.Description = strings.TrimSpace(in.Description)
	z.Color = color
	z.Polygon = poly
	z.Center = geo.Centroid(poly)
	z.UpdatedAt = now.UTC()
	return nil
}
