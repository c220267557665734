package zones

import "context"

// ZoneRepository：区域持久化，缺失时返回 *apperr.NotFoundError
type ZoneRepository interface {
	InsertZone(ctx context.Context, z Zone) error
	UpdateZone(ctx context.Context, z Zone) error
	GetZone(ctx context.Context, id string) (*Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)
	DeleteZone(ctx context.Context, id string) error
}

// LocationRepository：位置持久化；(entity_type, entity_id) 唯一
// FindLocationByEntity 未找到时返回 (nil, nil)；UpsertLocation 冲突时把已存储的 ID 与 CreatedAt 回写到 l
type LocationRepository interface {
	UpsertLocation(ctx context.Context, l *Location) error
	GetLocation(ctx context.Context, id string) (*Location, error)
	FindLocationByEntity(ctx context.Context, t EntityType, entityID string) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	SetLocationZone(ctx context.Context, id string, zoneID *string) error
	ClearZone(ctx context.Context, zoneID string) (int64, error)
}
