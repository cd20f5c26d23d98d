package aggregate

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/onction/power-dashboard/internal/domain"
)

func feeder(id int64, kwh, uptime float64, status domain.Status) domain.Feeder {
	return domain.Feeder{
		FeederID:       id,
		Name:           "F" + string(rune('A'+id-1)),
		ConsumptionKWh: kwh,
		UptimeHours:    uptime,
		VoltageClass:   "11Kv Feeder",
		Station:        "TEST ISS",
		Status:         status,
	}
}

func scenarioA() domain.Snapshot {
	return domain.Snapshot{
		SnapshotTime: domain.MustTimestamp("2026-01-08T12:00:00"),
		Zones: []domain.Zone{
			{Name: "North", TradingPoints: []domain.TradingPoint{{
				Name: "TP1",
				Feeders: []domain.Feeder{
					feeder(1, 100, 5, domain.StatusOnline),
					feeder(2, 200, 1.5, domain.StatusOnline),
				},
			}}},
			{Name: "South", TradingPoints: []domain.TradingPoint{{
				Name:    "TP2",
				Feeders: []domain.Feeder{feeder(3, 0, 0, domain.StatusOffline)},
			}}},
		},
	}
}

func TestComputeStats_ScenarioA(t *testing.T) {
	st := ComputeStats(scenarioA())

	if st.TotalConsumption != 300 {
		t.Errorf("Expected total consumption 300, got %v", st.TotalConsumption)
	}
	if st.TotalFeeders != 3 || st.ActiveFeeders != 2 {
		t.Errorf("Expected 2/3 active, got %d/%d", st.ActiveFeeders, st.TotalFeeders)
	}
	if st.ZoneCount != 2 {
		t.Errorf("Expected 2 zones, got %d", st.ZoneCount)
	}
	if st.AvgUptime != 2.2 {
		t.Errorf("Expected avg uptime 2.2, got %v", st.AvgUptime)
	}
	if len(st.Alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d: %+v", len(st.Alerts), st.Alerts)
	}
	if st.Alerts[0].FeederID != 2 || st.Alerts[0].Reason != domain.ReasonLowUptime {
		t.Errorf("Expected first alert low uptime on feeder 2, got %+v", st.Alerts[0])
	}
	if st.Alerts[1].FeederID != 3 || st.Alerts[1].Reason != domain.ReasonOffline {
		t.Errorf("Expected second alert offline on feeder 3, got %+v", st.Alerts[1])
	}
	if st.Alerts[1].Zone != "South" || st.Alerts[1].TradingPoint != "TP2" {
		t.Errorf("Expected alert placement South/TP2, got %s/%s", st.Alerts[1].Zone, st.Alerts[1].TradingPoint)
	}
}

func TestComputeStats_Fixture(t *testing.T) {
	st := ComputeStats(domain.FixtureSnapshot())

	if st.TotalConsumption != 76932 {
		t.Errorf("Expected 76932 kWh, got %v", st.TotalConsumption)
	}
	if st.TotalFeeders != 14 || st.ActiveFeeders != 11 {
		t.Errorf("Expected 11/14 active, got %d/%d", st.ActiveFeeders, st.TotalFeeders)
	}
	if st.AvgUptime != 3.3 {
		t.Errorf("Expected avg uptime 3.3, got %v", st.AvgUptime)
	}

	var ids []int64
	for _, a := range st.Alerts {
		ids = append(ids, a.FeederID)
	}
	if !reflect.DeepEqual(ids, []int64{748, 806, 807, 826}) {
		t.Errorf("Expected alerts in traversal order [748 806 807 826], got %v", ids)
	}
}

func TestComputeStats_EmptySnapshotIsNaN(t *testing.T) {
	st := ComputeStats(domain.Snapshot{})
	if !st.AvgUptime.Undefined() {
		t.Errorf("Expected NaN avg uptime for zero feeders, got %v", st.AvgUptime)
	}
	if st.Alerts == nil {
		t.Error("Expected empty, non-nil alert list")
	}

	b, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Stats with NaN must still encode: %v", err)
	}
	var decoded map[string]any
	_ = json.Unmarshal(b, &decoded)
	if decoded["avg_uptime"] != nil {
		t.Errorf("Expected avg_uptime null, got %v", decoded["avg_uptime"])
	}
}

func TestComputeStats_Idempotent(t *testing.T) {
	snap := domain.FixtureSnapshot()
	first := ComputeStats(snap)
	second := ComputeStats(snap)
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected repeated ComputeStats calls to be equal")
	}
	if !reflect.DeepEqual(snap, domain.FixtureSnapshot()) {
		t.Error("ComputeStats must not mutate its snapshot")
	}
}

func TestComputeZoneRollup_MatchesStats(t *testing.T) {
	for name, snap := range map[string]domain.Snapshot{
		"fixture":   domain.FixtureSnapshot(),
		"scenarioA": scenarioA(),
	} {
		st := ComputeStats(snap)
		var consumption float64
		var feeders int
		for _, z := range ComputeZoneRollup(snap) {
			consumption += z.Consumption
			feeders += z.FeederCount
		}
		if consumption != st.TotalConsumption {
			t.Errorf("%s: zone consumption %v != total %v", name, consumption, st.TotalConsumption)
		}
		if feeders != st.TotalFeeders {
			t.Errorf("%s: zone feeders %d != total %d", name, feeders, st.TotalFeeders)
		}
	}
}

func TestComputeZoneRollup_Fixture(t *testing.T) {
	zones := ComputeZoneRollup(domain.FixtureSnapshot())
	want := []struct {
		name    string
		percent Figure
		active  int
	}{
		{"Bauchi", 100, 4},
		{"Gombe", 100, 4},
		{"Makari Jos", 50, 2},
		{"Zaria Road Jos", 50, 1},
	}
	if len(zones) != len(want) {
		t.Fatalf("Expected %d zones, got %d", len(want), len(zones))
	}
	for i, w := range want {
		if zones[i].Name != w.name || zones[i].OnlinePercent != w.percent || zones[i].ActiveCount != w.active {
			t.Errorf("zone %d: expected %+v, got %+v", i, w, zones[i])
		}
	}
	if zones[2].AvgUptime != 1.8 {
		t.Errorf("Expected Makari Jos avg uptime 1.8, got %v", zones[2].AvgUptime)
	}
}

func TestComputeZoneRollup_EmptyZoneIsNaN(t *testing.T) {
	zones := ComputeZoneRollup(domain.Snapshot{Zones: []domain.Zone{{Name: "Empty"}}})
	if !zones[0].OnlinePercent.Undefined() || !zones[0].AvgUptime.Undefined() {
		t.Errorf("Expected NaN figures for an empty zone, got %+v", zones[0])
	}
}

func TestComputeVoltageClassDistribution_FirstSeenOrder(t *testing.T) {
	snap := domain.FixtureSnapshot()
	dist := ComputeVoltageClassDistribution(snap)

	if len(dist) != 2 {
		t.Fatalf("Expected 2 voltage classes, got %d", len(dist))
	}
	if dist[0].VoltageClass != "33Kv Feeder" || dist[0].FeederCount != 4 || dist[0].TotalConsumption != 41079 {
		t.Errorf("Unexpected first class %+v", dist[0])
	}
	if dist[1].VoltageClass != "11Kv Feeder" || dist[1].FeederCount != 10 {
		t.Errorf("Unexpected second class %+v", dist[1])
	}

	var sum float64
	for _, d := range dist {
		sum += d.TotalConsumption
	}
	if sum != ComputeStats(snap).TotalConsumption {
		t.Errorf("Voltage class consumption %v does not add up to total", sum)
	}
}

func TestComputeTopConsumers_ScenarioD(t *testing.T) {
	kwh := []float64{50, 50, 10, 90, 0, 90, 30}
	var feeders []domain.Feeder
	for i, v := range kwh {
		feeders = append(feeders, feeder(int64(i+1), v, 4, domain.StatusOnline))
	}
	snap := domain.Snapshot{Zones: []domain.Zone{{Name: "Z", TradingPoints: []domain.TradingPoint{{Name: "T", Feeders: feeders}}}}}

	top := ComputeTopConsumers(snap, 5)

	var ids []int64
	for _, f := range top {
		ids = append(ids, f.FeederID)
	}
	if !reflect.DeepEqual(ids, []int64{4, 6, 1, 2, 7}) {
		t.Errorf("Expected stable descending ranking [4 6 1 2 7], got %v", ids)
	}
}

func TestComputeTopConsumers_Length(t *testing.T) {
	if got := len(ComputeTopConsumers(scenarioA(), 5)); got != 3 {
		t.Errorf("Expected min(5, 3) = 3 entries, got %d", got)
	}
	if got := len(ComputeTopConsumers(scenarioA(), 0)); got != 0 {
		t.Errorf("Expected empty ranking for n=0, got %d", got)
	}

	top := ComputeTopConsumers(domain.FixtureSnapshot(), DefaultTopConsumers)
	for i := 1; i < len(top); i++ {
		if top[i-1].ConsumptionKWh < top[i].ConsumptionKWh {
			t.Fatalf("Ranking not descending at %d: %v < %v", i, top[i-1].ConsumptionKWh, top[i].ConsumptionKWh)
		}
	}
	if top[0].FeederID != 728 || top[0].Zone != "Makari Jos" {
		t.Errorf("Expected BUKURU (728, Makari Jos) on top, got %+v", top[0])
	}
}

func TestComputeHistoryTotals(t *testing.T) {
	empty := ComputeHistoryTotals(nil)
	if empty.TotalConsumption != 0 || empty.AvgUptime != 0 {
		t.Errorf("Expected zero totals for empty series, got %+v", empty)
	}

	totals := ComputeHistoryTotals(domain.FixtureHistory())
	if totals.TotalConsumption != 60400 {
		t.Errorf("Expected 60400 kWh, got %v", totals.TotalConsumption)
	}
	if totals.AvgUptime != 12.7 {
		t.Errorf("Expected avg uptime 12.7, got %v", totals.AvgUptime)
	}
}

func TestEmptySnapshot_ListsEncodeAsArrays(t *testing.T) {
	snap := domain.Snapshot{Zones: []domain.Zone{{Name: "Empty"}}}
	for name, v := range map[string]any{
		"flatten":         Flatten(snap),
		"voltage classes": ComputeVoltageClassDistribution(snap),
		"top consumers":   ComputeTopConsumers(snap, DefaultTopConsumers),
	} {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", name, err)
		}
		if string(b) != "[]" {
			t.Errorf("%s: expected [], got %s", name, b)
		}
	}
}
