// Package aggregate derives dashboard statistics from a grid snapshot.
//
// Every function here is a pure function of its arguments: the snapshot is
// never modified and repeated calls return equal results.
package aggregate

import (
	"slices"

	"github.com/onction/power-dashboard/internal/domain"
)

// LowUptimeHours is the uptime below which a feeder raises a LOW_UPTIME alert.
const LowUptimeHours = 2.0

// DefaultTopConsumers is the ranking length used when the caller has no preference.
const DefaultTopConsumers = 5

type Stats struct {
	TotalConsumption float64        `json:"total_consumption"`
	TotalFeeders     int            `json:"total_feeders"`
	ActiveFeeders    int            `json:"active_feeders"`
	AvgUptime        Figure         `json:"avg_uptime"`
	Alerts           []domain.Alert `json:"alerts"`
	ZoneCount        int            `json:"zone_count"`
}

type ZoneStat struct {
	Name          string  `json:"name"`
	Consumption   float64 `json:"consumption"`
	FeederCount   int     `json:"feeder_count"`
	ActiveCount   int     `json:"active_count"`
	OnlinePercent Figure  `json:"online_percent"`
	AvgUptime     Figure  `json:"avg_uptime"`
}

type VoltageClassStat struct {
	VoltageClass     string  `json:"voltage_class"`
	FeederCount      int     `json:"feeder_count"`
	TotalConsumption float64 `json:"total_consumption"`
}

type HistoryTotals struct {
	TotalConsumption float64 `json:"total_consumption"`
	AvgUptime        Figure  `json:"avg_uptime"`
}

// Flatten lists every feeder in traversal order (zones, then trading points,
// then feeders) together with its placement.
func Flatten(snap domain.Snapshot) []domain.PlacedFeeder {
	out := []domain.PlacedFeeder{}
	for _, z := range snap.Zones {
		for _, tp := range z.TradingPoints {
			for _, f := range tp.Feeders {
				out = append(out, domain.PlacedFeeder{Feeder: f, Zone: z.Name, TradingPoint: tp.Name})
			}
		}
	}
	return out
}

// AlertFor returns the alert a feeder raises, if any. Offline takes precedence
// over low uptime.
func AlertFor(f domain.PlacedFeeder) (domain.Alert, bool) {
	var reason domain.AlertReason
	switch {
	case f.Status == domain.StatusOffline:
		reason = domain.ReasonOffline
	case f.UptimeHours < LowUptimeHours:
		reason = domain.ReasonLowUptime
	default:
		return domain.Alert{}, false
	}
	return domain.Alert{
		FeederID:     f.FeederID,
		Name:         f.Name,
		Zone:         f.Zone,
		TradingPoint: f.TradingPoint,
		Reason:       reason,
		UptimeHours:  f.UptimeHours,
	}, true
}

// ComputeStats summarises the whole snapshot. AvgUptime is NaN for a
// snapshot without feeders.
func ComputeStats(snap domain.Snapshot) Stats {
	st := Stats{ZoneCount: len(snap.Zones), Alerts: []domain.Alert{}}
	var totalUptime float64
	for _, f := range Flatten(snap) {
		st.TotalFeeders++
		st.TotalConsumption += f.ConsumptionKWh
		totalUptime += f.UptimeHours
		if f.Online() {
			st.ActiveFeeders++
		}
		if a, ok := AlertFor(f); ok {
			st.Alerts = append(st.Alerts, a)
		}
	}
	st.AvgUptime = round(ratio(totalUptime, float64(st.TotalFeeders)), 1)
	return st
}

// ComputeZoneRollup returns one entry per zone in snapshot order. Zones
// without feeders get NaN for OnlinePercent and AvgUptime.
func ComputeZoneRollup(snap domain.Snapshot) []ZoneStat {
	out := make([]ZoneStat, 0, len(snap.Zones))
	for _, z := range snap.Zones {
		zs := ZoneStat{Name: z.Name}
		var uptime float64
		for _, tp := range z.TradingPoints {
			for _, f := range tp.Feeders {
				zs.Consumption += f.ConsumptionKWh
				zs.FeederCount++
				uptime += f.UptimeHours
				if f.Online() {
					zs.ActiveCount++
				}
			}
		}
		zs.OnlinePercent = round(ratio(float64(zs.ActiveCount), float64(zs.FeederCount))*100, 0)
		zs.AvgUptime = round(ratio(uptime, float64(zs.FeederCount)), 1)
		out = append(out, zs)
	}
	return out
}

// ComputeVoltageClassDistribution groups feeders by voltage class in the
// order each class is first seen.
func ComputeVoltageClassDistribution(snap domain.Snapshot) []VoltageClassStat {
	index := map[string]int{}
	out := []VoltageClassStat{}
	for _, f := range Flatten(snap) {
		i, ok := index[f.VoltageClass]
		if !ok {
			i = len(out)
			index[f.VoltageClass] = i
			out = append(out, VoltageClassStat{VoltageClass: f.VoltageClass})
		}
		out[i].FeederCount++
		out[i].TotalConsumption += f.ConsumptionKWh
	}
	return out
}

// ComputeTopConsumers ranks feeders by consumption, highest first. Equal
// consumptions keep traversal order. n <= 0 yields an empty ranking.
func ComputeTopConsumers(snap domain.Snapshot, n int) []domain.PlacedFeeder {
	all := Flatten(snap)
	slices.SortStableFunc(all, func(a, b domain.PlacedFeeder) int {
		switch {
		case a.ConsumptionKWh > b.ConsumptionKWh:
			return -1
		case a.ConsumptionKWh < b.ConsumptionKWh:
			return 1
		}
		return 0
	})
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// ComputeHistoryTotals sums a feeder series. An empty series yields zeros.
func ComputeHistoryTotals(records []domain.HistoryRecord) HistoryTotals {
	if len(records) == 0 {
		return HistoryTotals{}
	}
	var t HistoryTotals
	var uptime float64
	for _, r := range records {
		t.TotalConsumption += r.ConsumptionKWh
		uptime += r.UptimeHours
	}
	t.AvgUptime = round(uptime/float64(len(records)), 1)
	return t
}
