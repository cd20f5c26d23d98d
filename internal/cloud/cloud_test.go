package cloud

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
)

var snapTime = time.Date(2026, 1, 8, 12, 25, 0, 0, time.UTC)

func TestFormatAlerts(t *testing.T) {
	alerts := aggregate.ComputeStats(domain.FixtureSnapshot()).Alerts
	subject, body := FormatAlerts(snapTime, alerts)

	if subject != "Power Grid: 4 feeder alerts" {
		t.Errorf("Unexpected subject %q", subject)
	}
	if !strings.Contains(body, "2026-01-08T12:25:00") {
		t.Errorf("Expected snapshot time in body, got %q", body)
	}
	if strings.Count(body, "\n") != 6 {
		t.Errorf("Expected header plus one line per alert, got %q", body)
	}
	if !strings.Contains(body, "is OFFLINE") || !strings.Contains(body, "low uptime") {
		t.Errorf("Expected both alert reasons in body, got %q", body)
	}

	one, _ := FormatAlerts(snapTime, alerts[:1])
	if one != "Power Grid: 1 feeder alert" {
		t.Errorf("Unexpected singular subject %q", one)
	}
}

func TestNewAlertRecords(t *testing.T) {
	alerts := []domain.Alert{
		{FeederID: 748, Name: "A", Reason: domain.ReasonOffline},
		{FeederID: 806, Name: "B", Reason: domain.ReasonLowUptime, UptimeHours: 1.2},
	}
	recs := NewAlertRecords(snapTime, alerts)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[0].AlertID == recs[1].AlertID {
		t.Error("Alert ids must be unique")
	}
	if _, err := uuid.Parse(recs[0].AlertID); err != nil {
		t.Errorf("Alert id is not a uuid: %v", err)
	}
	if recs[1].Reason != "LOW_UPTIME" || recs[1].Timestamp != snapTime.Unix() || recs[1].SnapshotTime != "2026-01-08T12:25:00" {
		t.Errorf("Unexpected record %+v", recs[1])
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 60)
	batches := chunk(items, batchSize)
	if len(batches) != 3 || len(batches[0]) != 25 || len(batches[2]) != 10 {
		t.Errorf("Unexpected batches of sizes %d", len(batches))
	}
	if chunk([]int{}, batchSize) != nil {
		t.Error("Expected no batches for empty input")
	}
}

func TestSnapshotKey(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	want := "snapshots/2026/01/08/122500-6ba7b810-9dad-11d1-80b4-00c04fd430c8.json"
	if got := SnapshotKey(snapTime, id); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
