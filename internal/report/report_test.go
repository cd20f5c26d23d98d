package report

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
)

var generated = time.Date(2026, 1, 8, 14, 5, 9, 0, time.UTC)

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	return NewEncoder(MustLocale("en-US"), WithNow(func() time.Time { return generated }))
}

func testRange(t *testing.T) domain.DateRange {
	t.Helper()
	r, err := domain.ParseDateRange("2026-01-01", "2026-01-08")
	if err != nil {
		t.Fatalf("ParseDateRange failed: %v", err)
	}
	return r
}

func selectedFeeder() *domain.PlacedFeeder {
	all := aggregate.Flatten(domain.FixtureSnapshot())
	f := all[1] // GUBI 33kV
	return &f
}

func TestLocale_Number(t *testing.T) {
	l := MustLocale("en-US")
	cases := map[float64]string{
		7956:     "7,956",
		76932:    "76,932",
		1234.5:   "1,234.5",
		596:      "596",
		0:        "0",
		3.14159:  "3.142",
		17431000: "17,431,000",
	}
	for in, want := range cases {
		if got := l.Number(in); got != want {
			t.Errorf("Number(%v) = %q, want %q", in, got, want)
		}
	}

	if got := l.DateTime(generated); got != "1/8/2026, 2:05:09 PM" {
		t.Errorf("Unexpected en-US date time %q", got)
	}
	if got := MustLocale("en-GB").DateTime(generated); got != "08/01/2026, 14:05:09" {
		t.Errorf("Unexpected en-GB date time %q", got)
	}
	if got := l.Figure(aggregate.Share(0, 0, 1)); got != "n/a" {
		t.Errorf("Expected undefined figure to render n/a, got %q", got)
	}
}

func TestNewLocale_Invalid(t *testing.T) {
	if _, err := NewLocale("not a locale!"); err == nil {
		t.Error("Expected error for malformed tag")
	}
}

func TestFilenames(t *testing.T) {
	r := testRange(t)
	cases := map[string]string{
		FeederCSVName("GUBI 33kV", r):      "GUBI 33kV_2026-01-01_to_2026-01-08.csv",
		FeederDocumentName("GUBI 33kV", r): "GUBI 33kV_report_2026-01-01_to_2026-01-08.doc",
		FeederTextName("GUBI 33kV", r):     "GUBI 33kV_report_2026-01-01_to_2026-01-08.txt",
		FeedersCSVName(r):                  "All_Feeders_Report_2026-01-01_to_2026-01-08.csv",
		PerformanceDocumentName(r):         "Feeder_Performance_Report_2026-01-01_to_2026-01-08.doc",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}

	b := &Blob{Name: "GRA/PALACE_report.doc"}
	if got := ArchiveKey("/reports/", b); got != "reports/GRA-PALACE_report.doc" {
		t.Errorf("Unexpected archive key %q", got)
	}
}

func TestFeedersCSV_RoundTrip(t *testing.T) {
	snap := domain.FixtureSnapshot()
	blob, err := newTestEncoder(t).FeedersCSV(&snap, testRange(t))
	if err != nil {
		t.Fatalf("FeedersCSV failed: %v", err)
	}
	if blob.ContentType != "text/csv" || blob.Name != "All_Feeders_Report_2026-01-01_to_2026-01-08.csv" {
		t.Errorf("Unexpected blob metadata %q %q", blob.Name, blob.ContentType)
	}

	lines := strings.Split(strings.TrimRight(string(blob.Data), "\n"), "\n")
	if got := strings.Split(lines[0], ","); strings.Join(got, "|") != strings.Join(feedersHeader, "|") {
		t.Errorf("Unexpected header %v", got)
	}

	feeders := aggregate.Flatten(snap)
	if len(lines)-1 != len(feeders) {
		t.Fatalf("Expected %d data rows, got %d", len(feeders), len(lines)-1)
	}
	for i, f := range feeders {
		fields := strings.Split(lines[i+1], ",")
		want := []string{f.Name, f.Zone, f.TradingPoint, f.Station, plain(f.ConsumptionKWh), plain(f.UptimeHours), f.VoltageClass, f.Status.String()}
		if strings.Join(fields, "|") != strings.Join(want, "|") {
			t.Errorf("row %d: expected %v, got %v", i, want, fields)
		}
	}
	if lines[1] != "GRA/PALACE,Bauchi,GRA/PALACE,BAUCHI TS,7956,3.5,33Kv Feeder,ONLINE" {
		t.Errorf("Unexpected first row %q", lines[1])
	}
}

func TestFeedersCSV_QuotesEmbeddedCommas(t *testing.T) {
	snap := domain.Snapshot{Zones: []domain.Zone{{Name: "Jos, North", TradingPoints: []domain.TradingPoint{{
		Name:    `TP "A"`,
		Feeders: []domain.Feeder{{FeederID: 1, Name: "X", Status: domain.StatusOnline}},
	}}}}}
	blob, err := newTestEncoder(t).FeedersCSV(&snap, testRange(t))
	if err != nil {
		t.Fatalf("FeedersCSV failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(blob.Data))).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if rows[1][1] != "Jos, North" || rows[1][2] != `TP "A"` {
		t.Errorf("Expected quoted fields to survive, got %v", rows[1])
	}
}

func TestFeederHistoryCSV(t *testing.T) {
	blob, err := newTestEncoder(t).FeederHistoryCSV(selectedFeeder(), domain.FixtureHistory(), testRange(t))
	if err != nil {
		t.Fatalf("FeederHistoryCSV failed: %v", err)
	}
	if blob.Name != "GUBI 33kV_2026-01-01_to_2026-01-08.csv" {
		t.Errorf("Unexpected name %q", blob.Name)
	}

	rows, err := csv.NewReader(strings.NewReader(string(blob.Data))).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("Expected header + 5 rows, got %d", len(rows))
	}
	want := []string{"1/7/2026, 8:00:00 AM", "5200", "2.5", "ONLINE", "BAUCHI TS", "Bauchi"}
	if strings.Join(rows[1], "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, rows[1])
	}
}

func TestExports_NoOpGuards(t *testing.T) {
	e := newTestEncoder(t)
	r := testRange(t)
	empty := domain.Snapshot{Zones: []domain.Zone{{Name: "Empty"}}}

	checks := map[string]error{}
	_, checks["history csv without feeder"] = e.FeederHistoryCSV(nil, domain.FixtureHistory(), r)
	_, checks["history csv without records"] = e.FeederHistoryCSV(selectedFeeder(), nil, r)
	_, checks["history doc without feeder"] = e.FeederHistoryDocument(nil, domain.FixtureHistory(), r)
	_, checks["history doc without records"] = e.FeederHistoryDocument(selectedFeeder(), []domain.HistoryRecord{}, r)
	_, checks["history text without feeder"] = e.FeederHistoryText(nil, domain.FixtureHistory(), r)
	_, checks["history text without records"] = e.FeederHistoryText(selectedFeeder(), nil, r)
	_, checks["feeders csv without snapshot"] = e.FeedersCSV(nil, r)
	_, checks["feeders csv without feeders"] = e.FeedersCSV(&empty, r)
	_, checks["performance doc without snapshot"] = e.PerformanceDocument(nil, r)
	_, checks["performance doc without feeders"] = e.PerformanceDocument(&empty, r)

	for name, err := range checks {
		if !errors.Is(err, ErrNothingToExport) {
			t.Errorf("%s: expected ErrNothingToExport, got %v", name, err)
		}
	}
}

func TestFeederHistoryDocument(t *testing.T) {
	blob, err := newTestEncoder(t).FeederHistoryDocument(selectedFeeder(), domain.FixtureHistory(), testRange(t))
	if err != nil {
		t.Fatalf("FeederHistoryDocument failed: %v", err)
	}
	if blob.ContentType != "application/vnd.ms-word" || blob.Name != "GUBI 33kV_report_2026-01-01_to_2026-01-08.doc" {
		t.Errorf("Unexpected blob metadata %q %q", blob.Name, blob.ContentType)
	}

	doc := string(blob.Data)
	for _, want := range []string{
		"<span>GUBI 33kV</span>",
		"<span>BAUCHI TS</span>",
		"<span>33Kv Feeder</span>",
		"<span>2026-01-01 to 2026-01-08</span>",
		"<span>60,400 kWh</span>",
		"<span>12.7 hours</span>",
		"<span>5 snapshots</span>",
		"<td>1/7/2026, 8:00:00 AM</td><td>5,200</td><td>2.5</td><td>ONLINE</td>",
		"Report Generated: 1/8/2026, 2:05:09 PM",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Document missing %q", want)
		}
	}
}

func TestFeederHistoryText(t *testing.T) {
	blob, err := newTestEncoder(t).FeederHistoryText(selectedFeeder(), domain.FixtureHistory(), testRange(t))
	if err != nil {
		t.Fatalf("FeederHistoryText failed: %v", err)
	}
	if blob.ContentType != ContentTypeText || blob.Name != "GUBI 33kV_report_2026-01-01_to_2026-01-08.txt" {
		t.Errorf("Unexpected blob metadata %q %q", blob.Name, blob.ContentType)
	}

	text := string(blob.Data)
	if !strings.HasPrefix(text, "FEEDER CONSUMPTION REPORT\n") {
		t.Errorf("Unexpected report start %q", text[:40])
	}
	for _, want := range []string{
		"Feeder Name: GUBI 33kV\n",
		"Trading Point: GUBI\n",
		"Report Period: 2026-01-01 to 2026-01-08\n",
		"Total Consumption: 60,400 kWh\n",
		"Average Uptime: 12.7 hours\n",
		"Total Data Points: 5\n",
		"1. 1/7/2026, 8:00:00 AM\n   Consumption: 5,200 kWh\n   Uptime: 2.5 hours\n   Status: ONLINE\n",
		"5. 1/8/2026, 6:00:00 AM\n   Consumption: 18,900 kWh\n   Uptime: 24 hours\n",
		"---\nReport Generated: 1/8/2026, 2:05:09 PM\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text report missing %q", want)
		}
	}
	if strings.Contains(text, "<") {
		t.Error("Text report must not contain markup")
	}
}

func TestPerformanceDocument(t *testing.T) {
	snap := domain.FixtureSnapshot()
	blob, err := newTestEncoder(t).PerformanceDocument(&snap, testRange(t))
	if err != nil {
		t.Fatalf("PerformanceDocument failed: %v", err)
	}
	if blob.Name != "Feeder_Performance_Report_2026-01-01_to_2026-01-08.doc" {
		t.Errorf("Unexpected name %q", blob.Name)
	}

	doc := string(blob.Data)
	for _, want := range []string{
		"<strong>Total Feeders:</strong> 14",
		`<div class="value">76,932</div>`,
		"78.6% operational",
		"21.4% down",
		"<h3>Makari Jos</h3>",
		"<strong>Avg Uptime:</strong> 1.8h",
		"Online Feeders (11)",
		"Offline Feeders (3)",
		`<tr class="low-performance"><td><strong>ASHAKA II</strong></td><td>Gombe</td><td>ASHAKA</td><td><strong>9,665</strong></td><td>1.9 ⚠️</td>`,
		"⚠️ Low uptime detected",
		"<td><strong>UNIJOS</strong></td>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Document missing %q", want)
		}
	}

	// Zones appear in snapshot order.
	order := []string{"<h3>Bauchi</h3>", "<h3>Gombe</h3>", "<h3>Makari Jos</h3>", "<h3>Zaria Road Jos</h3>"}
	last := -1
	for _, z := range order {
		i := strings.Index(doc, z)
		if i <= last {
			t.Errorf("Zone %s out of order", z)
		}
		last = i
	}
}

func TestPerformanceDocument_AllClear(t *testing.T) {
	snap := domain.Snapshot{Zones: []domain.Zone{{Name: "Z", TradingPoints: []domain.TradingPoint{{
		Name:    "T",
		Feeders: []domain.Feeder{{FeederID: 1, Name: "<b>ok</b>", ConsumptionKWh: 10, UptimeHours: 5, Status: domain.StatusOnline}},
	}}}}}
	blob, err := newTestEncoder(t).PerformanceDocument(&snap, testRange(t))
	if err != nil {
		t.Fatalf("PerformanceDocument failed: %v", err)
	}
	doc := string(blob.Data)
	if !strings.Contains(doc, "No offline feeders") || !strings.Contains(doc, "No performance issues detected") {
		t.Error("Expected all-clear notes when nothing is offline or flagged")
	}
	if strings.Contains(doc, "<b>ok</b>") {
		t.Error("Feeder names must be escaped")
	}
}
