package report

import (
	"bytes"
	"fmt"
	"strings"
	texttemplate "text/template"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
)

const ContentTypeText = "text/plain; charset=utf-8"

// FeederTextName is "<feeder>_report_<from>_to_<to>.txt".
func FeederTextName(feeder string, r domain.DateRange) string {
	return feeder + "_report_" + period(r) + ".txt"
}

func (e *Encoder) textTemplate() *texttemplate.Template {
	funcs := texttemplate.FuncMap{
		"num":      e.locale.Number,
		"figure":   e.locale.Figure,
		"datetime": func(ts domain.Timestamp) string { return e.locale.DateTime(ts.Time) },
		"inc":      func(i int) int { return i + 1 },
	}
	return texttemplate.Must(texttemplate.New("feeder-text").Funcs(funcs).Parse(feederTextTemplate))
}

// FeederHistoryText renders one feeder's series as a plain-text report with
// numbered records.
func (e *Encoder) FeederHistoryText(f *domain.PlacedFeeder, records []domain.HistoryRecord, r domain.DateRange) (*Blob, error) {
	if f == nil || len(records) == 0 {
		return nil, ErrNothingToExport
	}
	data := feederDocument{
		Feeder:    *f,
		From:      r.FromParam(),
		To:        r.ToParam(),
		Totals:    aggregate.ComputeHistoryTotals(records),
		Records:   records,
		Generated: e.locale.DateTime(e.now()),
	}
	var buf bytes.Buffer
	if err := e.text.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render text report: %w", err)
	}
	out := strings.TrimLeft(buf.String(), "\n")
	return &Blob{Name: FeederTextName(f.Name, r), ContentType: ContentTypeText, Data: []byte(out)}, nil
}

const feederTextTemplate = `
FEEDER CONSUMPTION REPORT

Feeder Name: {{.Feeder.Name}}
Zone: {{.Feeder.Zone}}
Station: {{.Feeder.Station}}
Voltage Class: {{.Feeder.VoltageClass}}
Trading Point: {{.Feeder.TradingPoint}}

Report Period: {{.From}} to {{.To}}

SUMMARY STATISTICS
Total Consumption: {{num .Totals.TotalConsumption}} kWh
Average Uptime: {{figure .Totals.AvgUptime}} hours
Total Data Points: {{len .Records}}

DETAILED RECORDS
{{range $i, $r := .Records}}
{{inc $i}}. {{datetime $r.SnapshotTime}}
   Consumption: {{num $r.ConsumptionKWh}} kWh
   Uptime: {{$r.UptimeHours}} hours
   Status: {{$r.Status}}
{{end}}
---
Report Generated: {{.Generated}}
`
