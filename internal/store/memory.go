package store

import (
	"context"
	"sort"
	"sync"

	"zone-api/internal/apperr"
	"zone-api/internal/zones"
)

// Memory：进程内仓储，用于 STORE=memory 与测试；语义与 Postgres 实现一致
// 约束：返回值均为拷贝，调用方修改不影响存储
type Memory struct {
	mu    sync.RWMutex
	zones map[string]zones.Zone
	locs  map[string]zones.Location
}

func NewMemory() *Memory {
	return &Memory{zones: map[string]zones.Zone{}, locs: map[string]zones.Location{}}
}

func (m *Memory) InsertZone(_ context.Context, z zones.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	z.Polygon = append(z.Polygon[:0:0], z.Polygon...)
	m.zones[z.ID] = z
	return nil
}

func (m *Memory) UpdateZone(_ context.Context, z zones.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[z.ID]; !ok {
		return apperr.NotFound("zone", z.ID)
	}
	z.Polygon = append(z.Polygon[:0:0], z.Polygon...)
	m.zones[z.ID] = z
	return nil
}

func (m *Memory) GetZone(_ context.Context, id string) (*zones.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[id]
	if !ok {
		return nil, apperr.NotFound("zone", id)
	}
	z.Polygon = append(z.Polygon[:0:0], z.Polygon...)
	return &z, nil
}

func (m *Memory) ListZones(_ context.Context) ([]zones.Zone, error) {
	m.mu.RLock()
	out := make([]zones.Zone, 0, len(m.zones))
	for _, z := range m.zones {
		z.Polygon = append(z.Polygon[:0:0], z.Polygon...)
		out = append(out, z)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteZone：同 ON DELETE SET NULL，一并清空引用
func (m *Memory) DeleteZone(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[id]; !ok {
		return apperr.NotFound("zone", id)
	}
	delete(m.zones, id)
	for k, l := range m.locs {
		if l.ZoneID != nil && *l.ZoneID == id {
			l.ZoneID = nil
			m.locs[k] = l
		}
	}
	return nil
}

func (m *Memory) UpsertLocation(_ context.Context, l *zones.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, cur := range m.locs {
		if cur.EntityType == l.EntityType && cur.EntityID == l.EntityID && k != l.ID {
			l.ID, l.CreatedAt = cur.ID, cur.CreatedAt
			break
		}
	}
	m.locs[l.ID] = *l
	return nil
}

func (m *Memory) GetLocation(_ context.Context, id string) (*zones.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.locs[id]
	if !ok {
		return nil, apperr.NotFound("location", id)
	}
	return &l, nil
}

func (m *Memory) FindLocationByEntity(_ context.Context, t zones.EntityType, entityID string) (*zones.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.locs {
		if l.EntityType == t && l.EntityID == entityID {
			return &l, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListLocations(_ context.Context) ([]zones.Location, error) {
	m.mu.RLock()
	out := make([]zones.Location, 0, len(m.locs))
	for _, l := range m.locs {
		out = append(out, l)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) SetLocationZone(_ context.Context, id string, zoneID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locs[id]
	if !ok {
		return apperr.NotFound("location", id)
	}
	if zoneID != nil {
		z := *zoneID
		zoneID = &z
	}
	l.ZoneID = zoneID
	m.locs[id] = l
	return nil
}

func (m *Memory) ClearZone(_ context.Context, zoneID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, l := range m.locs {
		if l.ZoneID != nil && *l.ZoneID == zoneID {
			l.ZoneID = nil
			m.locs[k] = l
			n++
		}
	}
	return n, nil
}

// PendingLocations：尚未解析出坐标的位置
func (m *Memory) PendingLocations(ctx context.Context, limit int) ([]zones.Location, error) {
	all, _ := m.ListLocations(ctx)
	var out []zones.Location
	for _, l := range all {
		if l.HasCoordinates() {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var _ zones.ZoneRepository = (*Memory)(nil)
var _ zones.LocationRepository = (*Memory)(nil)
