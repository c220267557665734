package zones

import (
	"strings"
	"time"

	"zone-api/internal/apperr"
	"zone-api/internal/geo"
)

type EntityType string

const (
	EntityPatient      EntityType = "patient"
	EntityProfessional EntityType = "professional"
)

func (t EntityType) Valid() bool { return t == EntityPatient || t == EntityProfessional }

// Location：患者或医护人员的地址及其地理编码结果
// 约束：Lat/Lng 仅在地理编码成功后存在；ZoneID 为派生的反向引用
type Location struct {
	ID               string     `json:"id"`
	EntityType       EntityType `json:"entity_type"`
	EntityID         string     `json:"entity_id"`
	EntityName       string     `json:"entity_name"`
	Address          string     `json:"address"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	Lat              *float64   `json:"lat,omitempty"`
	Lng              *float64   `json:"lng,omitempty"`
	FormattedAddress string     `json:"formatted_address,omitempty"`
	ZoneID           *string    `json:"zone_id,omitempty"`
	GeocodedAt       *time.Time `json:"geocoded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (l *Location) HasCoordinates() bool { return l.Lat != nil && l.Lng != nil }

// Point：调用前需确认 HasCoordinates
func (l *Location) Point() geo.Point { return geo.Point{Lat: *l.Lat, Lng: *l.Lng} }

func (l *Location) clearGeocode() {
	l.Lat = nil
	l.Lng = nil
	l.FormattedAddress = ""
	l.GeocodedAt = nil
	l.ZoneID = nil
}

// LocationInput：提交实体地址
type LocationInput struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	EntityName string     `json:"entity_name"`
	Address    string     `json:"address"`
	City       string     `json:"city"`
	State      string     `json:"state"`
}

func (in LocationInput) validate() error {
	if !in.EntityType.Valid() {
		return apperr.Validation("entity_type", "must be patient or professional")
	}
	if strings.TrimSpace(in.EntityID) == "" {
		return apperr.Validation("entity_id", "entity id is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return apperr.InvalidInput("address", "address is required")
	}
	return nil
}
