package zones

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"zone-api/internal/apperr"
	"zone-api/internal/geo"
	"zone-api/internal/geocode"
	"zone-api/internal/logger"
	"zone-api/internal/metrics"
)

// Service：区域与位置的编排
// 约束：区域归属是派生数据，任何区域多边形变化或位置坐标变化后都会重算；
// 地图库未就绪时跳过重算，保留已有归属
type Service struct {
	zones    ZoneRepository
	locs     LocationRepository
	geocoder geocode.Geocoder
	engine   Membership
	th       Thresholds
	now      func() time.Time
}

func NewService(zr ZoneRepository, lr LocationRepository, g geocode.Geocoder, m Membership, th Thresholds) *Service {
	return &Service{zones: zr, locs: lr, geocoder: g, engine: m, th: th, now: time.Now}
}

func (s *Service) CreateZone(ctx context.Context, in ZoneInput) (*Zone, error) {
	z, err := NewZone(in, s.now())
	if err != nil {
		return nil, err
	}
	if geo.SelfIntersects(z.Polygon) {
		logger.L().Warn("zone_polygon_self_intersecting", "name", z.Name)
	}
	if err := s.zones.InsertZone(ctx, *z); err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	logger.L().Info("zone_created", "id", z.ID, "vertices", len(z.Polygon))
	if _, err := s.ReassignAll(ctx); err != nil {
		logger.L().Error("zone_reassign_error", "err", err)
	}
	return z, nil
}

func (s *Service) UpdateZone(ctx context.Context, id string, in ZoneInput) (*Zone, error) {
	z, err := s.zones.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := z.Apply(in, s.now()); err != nil {
		return nil, err
	}
	if geo.SelfIntersects(z.Polygon) {
		logger.L().Warn("zone_polygon_self_intersecting", "id", z.ID)
	}
	if err := s.zones.UpdateZone(ctx, *z); err != nil {
		return nil, fmt.Errorf("update zone: %w", err)
	}
	logger.L().Info("zone_updated", "id", z.ID)
	if _, err := s.ReassignAll(ctx); err != nil {
		logger.L().Error("zone_reassign_error", "err", err)
	}
	return z, nil
}

func (s *Service) GetZone(ctx context.Context, id string) (*Zone, error) {
	return s.zones.GetZone(ctx, id)
}

func (s *Service) ListZones(ctx context.Context) ([]Zone, error) {
	return s.zones.ListZones(ctx)
}

// DeleteZone：先清空引用该区域的位置，再按剩余区域重新归属；不删除位置
func (s *Service) DeleteZone(ctx context.Context, id string) error {
	if _, err := s.zones.GetZone(ctx, id); err != nil {
		return err
	}
	if err := s.zones.DeleteZone(ctx, id); err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	n, err := s.locs.ClearZone(ctx, id)
	if err != nil {
		return fmt.Errorf("clear zone references: %w", err)
	}
	logger.L().Info("zone_deleted", "id", id, "cleared_locations", n)
	if _, err := s.ReassignAll(ctx); err != nil {
		logger.L().Error("zone_reassign_error", "err", err)
	}
	return nil
}

// ContainsPoint：区域是否包含坐标；地图库未就绪时为 false
func (s *Service) ContainsPoint(ctx context.Context, id string, pt geo.Point) (bool, error) {
	z, err := s.zones.GetZone(ctx, id)
	if err != nil {
		return false, err
	}
	return s.engine.Contains(z.Polygon, pt), nil
}

// ZonesAt：包含坐标的全部区域（已按归属优先级排序）
func (s *Service) ZonesAt(ctx context.Context, pt geo.Point) ([]Zone, error) {
	zs, err := s.zones.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	return Matching(zs, pt, s.engine), nil
}

func (s *Service) Statistics(ctx context.Context, id string) (*Statistics, error) {
	z, err := s.zones.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	locs, err := s.locs.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	st := ComputeStatistics(*z, locs, s.engine, s.th, s.now())
	return &st, nil
}

func (s *Service) AllStatistics(ctx context.Context) ([]Statistics, error) {
	zs, err := s.zones.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := s.locs.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Statistics, 0, len(zs))
	for _, z := range zs {
		out = append(out, ComputeStatistics(z, locs, s.engine, s.th, now))
	}
	return out, nil
}

func (s *Service) GetLocation(ctx context.Context, id string) (*Location, error) {
	return s.locs.GetLocation(ctx, id)
}

func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.locs.ListLocations(ctx)
}

// SubmitLocation：创建或更新实体位置并地理编码
// 零结果时位置以“未定位”状态保存并返回 NotFoundError；地址为空时不落库
func (s *Service) SubmitLocation(ctx context.Context, in LocationInput) (*Location, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	l, err := s.locs.FindLocationByEntity(ctx, in.EntityType, strings.TrimSpace(in.EntityID))
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = &Location{ID: uuid.NewString(), EntityType: in.EntityType, EntityID: strings.TrimSpace(in.EntityID), CreatedAt: now}
	}
	addr, city, state := strings.TrimSpace(in.Address), strings.TrimSpace(in.City), strings.TrimSpace(in.State)
	if addr != l.Address || city != l.City || state != l.State {
		l.clearGeocode()
	}
	l.EntityName = strings.TrimSpace(in.EntityName)
	l.Address, l.City, l.State = addr, city, state
	l.UpdatedAt = now
	return s.geocodeAndSave(ctx, l)
}

// RegeocodeLocation：对已有位置重新地理编码
func (s *Service) RegeocodeLocation(ctx context.Context, id string) (*Location, error) {
	l, err := s.locs.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt = s.now().UTC()
	return s.geocodeAndSave(ctx, l)
}

func (s *Service) geocodeAndSave(ctx context.Context, l *Location) (*Location, error) {
	r, gerr := s.geocoder.Geocode(ctx, geocode.Request{Address: l.Address, City: l.City, State: l.State})
	switch {
	case gerr == nil:
		lat, lng := r.Lat, r.Lng
		at := s.now().UTC()
		l.Lat, l.Lng = &lat, &lng
		l.FormattedAddress = r.FormattedAddress
		l.GeocodedAt = &at
		if s.engine.Ready() {
			zs, err := s.zones.ListZones(ctx)
			if err != nil {
				return nil, err
			}
			l.ZoneID = Assign(zs, l.Point(), s.engine)
		} else {
			logger.L().Warn("zone_assign_skipped", "reason", "map_not_loaded", "location", l.ID)
		}
	case apperr.IsNotFound(gerr):
		l.clearGeocode()
	case apperr.IsValidation(gerr):
		return nil, gerr
	}
	if err := s.locs.UpsertLocation(ctx, l); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	if gerr != nil {
		logger.L().Info("location_geocode_failed", "id", l.ID, "err", gerr)
		return l, gerr
	}
	logger.L().Info("location_geocoded", "id", l.ID, "zone", derefOr(l.ZoneID, ""))
	return l, nil
}

// ReassignAll：按当前区域重算全部位置的归属，返回变化数量
func (s *Service) ReassignAll(ctx context.Context) (int, error) {
	if !s.engine.Ready() {
		logger.L().Warn("zone_assign_skipped", "reason", "map_not_loaded")
		return 0, nil
	}
	zs, err := s.zones.ListZones(ctx)
	if err != nil {
		return 0, err
	}
	locs, err := s.locs.ListLocations(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range locs {
		l := &locs[i]
		var next *string
		if l.HasCoordinates() {
			next = Assign(zs, l.Point(), s.engine)
		}
		if derefOr(next, "") == derefOr(l.ZoneID, "") {
			continue
		}
		if err := s.locs.SetLocationZone(ctx, l.ID, next); err != nil {
			return changed, fmt.Errorf("set zone for %s: %w", l.ID, err)
		}
		changed++
	}
	metrics.ZoneReassignedTotal.Add(float64(changed))
	logger.L().Debug("zone_reassign_done", "locations", len(locs), "changed", changed)
	return changed, nil
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
