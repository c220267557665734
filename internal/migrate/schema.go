package migrate

import (
	"context"
	"database/sql"

	"zone-api/internal/logger"
)

// 背景：首次运行自动创建区域与位置表及索引
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；位置对区域的引用在删除区域时置空
var schema = []string{
	`CREATE TABLE IF NOT EXISTS zones (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        color TEXT NOT NULL DEFAULT '#3b82f6',
        polygon JSONB NOT NULL,
        center_lat DOUBLE PRECISION NOT NULL,
        center_lng DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_zones_created ON zones(created_at)`,
	`CREATE TABLE IF NOT EXISTS geocoded_locations (
        id TEXT PRIMARY KEY,
        entity_type TEXT NOT NULL CHECK (entity_type IN ('patient','professional')),
        entity_id TEXT NOT NULL,
        entity_name TEXT NOT NULL DEFAULT '',
        address TEXT NOT NULL,
        city TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL DEFAULT '',
        lat DOUBLE PRECISION,
        lng DOUBLE PRECISION,
        formatted_address TEXT,
        zone_id TEXT REFERENCES zones(id) ON DELETE SET NULL,
        geocoded_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_location_entity ON geocoded_locations(entity_type, entity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_zone ON geocoded_locations(zone_id)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_pending ON geocoded_locations(updated_at) WHERE lat IS NULL`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range schema {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
