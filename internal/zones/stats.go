package zones

import "time"

type Occupancy string

const (
	OccupancyLow    Occupancy = "low"
	OccupancyMedium Occupancy = "medium"
	OccupancyHigh   Occupancy = "high"
)

// Thresholds：总数 < MediumAt 为 low，< HighAt 为 medium，其余 high
type Thresholds struct {
	MediumAt int
	HighAt   int
}

var DefaultThresholds = Thresholds{MediumAt: 5, HighAt: 15}

func (t Thresholds) Tier(total int) Occupancy {
	high := t.HighAt
	if high < t.MediumAt {
		high = t.MediumAt
	}
	switch {
	case total < t.MediumAt:
		return OccupancyLow
	case total < high:
		return OccupancyMedium
	}
	return OccupancyHigh
}

// Statistics：区域内实体计数，计算时派生
type Statistics struct {
	ZoneID        string    `json:"zone_id"`
	Patients      int       `json:"patients"`
	Professionals int       `json:"professionals"`
	Total         int       `json:"total"`
	Occupancy     Occupancy `json:"occupancy"`
	ComputedAt    time.Time `json:"computed_at"`
}

// ComputeStatistics：未解析坐标的位置不计入任何计数
func ComputeStatistics(z Zone, locs []Location, m Membership, th Thresholds, now time.Time) Statistics {
	st := Statistics{ZoneID: z.ID, ComputedAt: now.UTC()}
	for i := range locs {
		l := &locs[i]
		if !l.HasCoordinates() || !m.Contains(z.Polygon, l.Point()) {
			continue
		}
		switch l.EntityType {
		case EntityPatient:
			st.Patients++
		case EntityProfessional:
			st.Professionals++
		}
	}
	st.Total = st.Patients + st.Professionals
	st.Occupancy = th.Tier(st.Total)
	return st
}
