// 包 store: 提供与 PostgreSQL 的数据访问层，包含区域与地理编码位置的读写
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/logger"
	"zone-api/internal/zones"
)

// Store: 数据库访问入口，持有连接池并实现 zones 的两个仓储接口
type Store struct {
	db *sql.DB
}

// AttachDB: 复用 utils.OpenPostgres 打开并配置好的连接池
func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

const zoneCols = `id, name, description, color, polygon, center_lat, center_lng, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanZone(r scanner) (*zones.Zone, error) {
	var (
		z    zones.Zone
		poly []byte
	)
	if err := r.Scan(&z.ID, &z.Name, &z.Description, &z.Color, &poly, &z.Center.Lat, &z.Center.Lng, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(poly, &z.Polygon); err != nil {
		return nil, fmt.Errorf("decode polygon %s: %w", z.ID, err)
	}
	return &z, nil
}

func (s *Store) InsertZone(ctx context.Context, z zones.Zone) error {
	poly, err := json.Marshal(z.Polygon)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO zones(`+zoneCols+`) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		z.ID, z.Name, z.Description, z.Color, poly, z.Center.Lat, z.Center.Lng, z.CreatedAt, z.UpdatedAt)
	if err != nil {
		return err
	}
	logger.L().Debug("db_zone_insert", "id", z.ID)
	return nil
}

func (s *Store) UpdateZone(ctx context.Context, z zones.Zone) error {
	poly, err := json.Marshal(z.Polygon)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE zones SET name=$2, description=$3, color=$4, polygon=$5, center_lat=$6, center_lng=$7, updated_at=$8 WHERE id=$1`,
		z.ID, z.Name, z.Description, z.Color, poly, z.Center.Lat, z.Center.Lng, z.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res, "zone", z.ID)
}

func (s *Store) GetZone(ctx context.Context, id string) (*zones.Zone, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+zoneCols+` FROM zones WHERE id=$1`, id)
	z, err := scanZone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("zone", id)
	}
	return z, err
}

func (s *Store) ListZones(ctx context.Context) ([]zones.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+zoneCols+` FROM zones ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []zones.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

// DeleteZone: 位置的 zone_id 由外键 ON DELETE SET NULL 置空
func (s *Store) DeleteZone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM zones WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "zone", id)
}

const locCols = `id, entity_type, entity_id, entity_name, address, city, state, lat, lng, formatted_address, zone_id, geocoded_at, created_at, updated_at`

func scanLocation(r scanner) (*zones.Location, error) {
	var (
		l         zones.Location
		et        string
		lat, lng  sql.NullFloat64
		formatted sql.NullString
		zoneID    sql.NullString
		geocoded  sql.NullTime
	)
	if err := r.Scan(&l.ID, &et, &l.EntityID, &l.EntityName, &l.Address, &l.City, &l.State,
		&lat, &lng, &formatted, &zoneID, &geocoded, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.EntityType = zones.EntityType(et)
	if lat.Valid && lng.Valid {
		la, ln := lat.Float64, lng.Float64
		l.Lat, l.Lng = &la, &ln
	}
	l.FormattedAddress = formatted.String
	if zoneID.Valid {
		z := zoneID.String
		l.ZoneID = &z
	}
	if geocoded.Valid {
		t := geocoded.Time
		l.GeocodedAt = &t
	}
	return &l, nil
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

// UpsertLocation: 以 (entity_type, entity_id) 去重，冲突时覆盖地址与地理编码结果
// UpsertLocation: 以 (entity_type, entity_id) 去重；并发首次提交时以库中已有行的 id 为准
func (s *Store) UpsertLocation(ctx context.Context, l *zones.Location) error {
	formatted := sql.NullString{String: l.FormattedAddress, Valid: l.FormattedAddress != ""}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO geocoded_locations(`+locCols+`)
         VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
         ON CONFLICT (entity_type, entity_id) DO UPDATE SET
            entity_name=EXCLUDED.entity_name, address=EXCLUDED.address, city=EXCLUDED.city, state=EXCLUDED.state,
            lat=EXCLUDED.lat, lng=EXCLUDED.lng, formatted_address=EXCLUDED.formatted_address,
            zone_id=EXCLUDED.zone_id, geocoded_at=EXCLUDED.geocoded_at, updated_at=EXCLUDED.updated_at
         RETURNING id, created_at`,
		l.ID, string(l.EntityType), l.EntityID, l.EntityName, l.Address, l.City, l.State,
		nullFloat(l.Lat), nullFloat(l.Lng), formatted, nullString(l.ZoneID), nullTime(l.GeocodedAt),
		l.CreatedAt, l.UpdatedAt).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return err
	}
	logger.L().Debug("db_location_upsert", "id", l.ID, "entity_type", l.EntityType)
	return nil
}

func (s *Store) GetLocation(ctx context.Context, id string) (*zones.Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+locCols+` FROM geocoded_locations WHERE id=$1`, id)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("location", id)
	}
	return l, err
}

func (s *Store) FindLocationByEntity(ctx context.Context, t zones.EntityType, entityID string) (*zones.Location, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+locCols+` FROM geocoded_locations WHERE entity_type=$1 AND entity_id=$2`, string(t), entityID)
	l, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

func (s *Store) ListLocations(ctx context.Context) ([]zones.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+locCols+` FROM geocoded_locations ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []zones.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) SetLocationZone(ctx context.Context, id string, zoneID *string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE geocoded_locations SET zone_id=$2 WHERE id=$1`, id, nullString(zoneID))
	if err != nil {
		return err
	}
	return requireRow(res, "location", id)
}

func (s *Store) ClearZone(ctx context.Context, zoneID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE geocoded_locations SET zone_id=NULL WHERE zone_id=$1`, zoneID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingLocations: 尚未解析出坐标的位置，供批量重新地理编码
func (s *Store) PendingLocations(ctx context.Context, limit int) ([]zones.Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+locCols+` FROM geocoded_locations WHERE lat IS NULL OR lng IS NULL ORDER BY updated_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []zones.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

var _ zones.ZoneRepository = (*Store)(nil)
var _ zones.LocationRepository = (*Store)(nil)
