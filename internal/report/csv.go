package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
)

var (
	feederHistoryHeader = []string{"Timestamp", "Consumption (kWh)", "Uptime (hours)", "Status", "Station", "Zone"}
	feedersHeader       = []string{"Feeder Name", "Zone", "Trading Point", "Station", "Consumption (kWh)", "Uptime (hours)", "Voltage Class", "Status"}
)

// FeederHistoryCSV exports one feeder's series. Station and zone come from
// the feeder's placement.
func (e *Encoder) FeederHistoryCSV(f *domain.PlacedFeeder, records []domain.HistoryRecord, r domain.DateRange) (*Blob, error) {
	if f == nil || len(records) == 0 {
		return nil, ErrNothingToExport
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			e.locale.DateTime(rec.SnapshotTime.Time),
			plain(rec.ConsumptionKWh),
			plain(rec.UptimeHours),
			rec.Status.String(),
			f.Station,
			f.Zone,
		})
	}
	data, err := encodeCSV(feederHistoryHeader, rows)
	if err != nil {
		return nil, err
	}
	return &Blob{Name: FeederCSVName(f.Name, r), ContentType: ContentTypeCSV, Data: data}, nil
}

// FeedersCSV exports every feeder of the snapshot in traversal order.
func (e *Encoder) FeedersCSV(snap *domain.Snapshot, r domain.DateRange) (*Blob, error) {
	if snap == nil {
		return nil, ErrNothingToExport
	}
	feeders := aggregate.Flatten(*snap)
	if len(feeders) == 0 {
		return nil, ErrNothingToExport
	}
	rows := make([][]string, 0, len(feeders))
	for _, f := range feeders {
		rows = append(rows, []string{
			f.Name,
			f.Zone,
			f.TradingPoint,
			f.Station,
			plain(f.ConsumptionKWh),
			plain(f.UptimeHours),
			f.VoltageClass,
			f.Status.String(),
		})
	}
	data, err := encodeCSV(feedersHeader, rows)
	if err != nil {
		return nil, err
	}
	return &Blob{Name: FeedersCSVName(r), ContentType: ContentTypeCSV, Data: data}, nil
}

func encodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// plain prints a number the shortest way that round-trips, with no grouping.
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
