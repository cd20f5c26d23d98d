package live

import (
	"time"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/service"
)

// Update is the dashboard payload pushed after each refresh.
type Update struct {
	SnapshotTime   domain.Timestamp             `json:"snapshot_time"`
	Source         string                       `json:"source"`
	FetchedAt      time.Time                    `json:"fetched_at"`
	Stats          aggregate.Stats              `json:"stats"`
	Zones          []aggregate.ZoneStat         `json:"zones"`
	VoltageClasses []aggregate.VoltageClassStat `json:"voltage_classes"`
	TopConsumers   []domain.PlacedFeeder        `json:"top_consumers"`
}

func NewUpdate(st *service.State, topN int) Update {
	return Update{
		SnapshotTime:   st.Snapshot.SnapshotTime,
		Source:         string(st.Source),
		FetchedAt:      st.FetchedAt,
		Stats:          st.Stats,
		Zones:          aggregate.ComputeZoneRollup(st.Snapshot),
		VoltageClasses: aggregate.ComputeVoltageClassDistribution(st.Snapshot),
		TopConsumers:   aggregate.ComputeTopConsumers(st.Snapshot, topN),
	}
}
