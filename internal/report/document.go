package report

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
)

// Encoder turns aggregation results into export blobs. It holds no state
// besides its rendering settings.
type Encoder struct {
	locale Locale
	now    func() time.Time
	tmpl   *template.Template
	text   *texttemplate.Template
}

type EncoderOption func(*Encoder)

// WithNow fixes the "generated at" clock.
func WithNow(now func() time.Time) EncoderOption {
	return func(e *Encoder) { e.now = now }
}

func NewEncoder(l Locale, opts ...EncoderOption) *Encoder {
	e := &Encoder{locale: l, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	funcs := template.FuncMap{
		"num":      e.locale.Number,
		"figure":   e.locale.Figure,
		"datetime": func(ts domain.Timestamp) string { return e.locale.DateTime(ts.Time) },
		"lowUptime": func(f domain.PlacedFeeder) bool {
			return aggregate.IsLowUptime(f.Feeder)
		},
	}
	e.tmpl = template.Must(template.New("feeder").Funcs(funcs).Parse(feederDocumentTemplate))
	template.Must(e.tmpl.New("performance").Parse(performanceDocumentTemplate))
	e.text = e.textTemplate()
	return e
}

type feederDocument struct {
	Feeder    domain.PlacedFeeder
	From, To  string
	Totals    aggregate.HistoryTotals
	Records   []domain.HistoryRecord
	Generated string
}

// FeederHistoryDocument renders one feeder's series as a Word-readable HTML document.
func (e *Encoder) FeederHistoryDocument(f *domain.PlacedFeeder, records []domain.HistoryRecord, r domain.DateRange) (*Blob, error) {
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
	out, err := e.render("feeder", data)
	if err != nil {
		return nil, err
	}
	return &Blob{Name: FeederDocumentName(f.Name, r), ContentType: ContentTypeDocument, Data: out}, nil
}

type performanceDocument struct {
	From, To         string
	Generated        string
	TotalFeeders     int
	TotalConsumption float64
	Online           []domain.PlacedFeeder
	Offline          []domain.PlacedFeeder
	LowUptime        []domain.PlacedFeeder
	OnlineShare      aggregate.Figure
	OfflineShare     aggregate.Figure
	Zones            []aggregate.ZoneStat
}

// PerformanceDocument renders the all-feeders report with a per-zone breakdown.
func (e *Encoder) PerformanceDocument(snap *domain.Snapshot, r domain.DateRange) (*Blob, error) {
	if snap == nil {
		return nil, ErrNothingToExport
	}
	all := aggregate.Flatten(*snap)
	if len(all) == 0 {
		return nil, ErrNothingToExport
	}
	online, offline := aggregate.Partition(all)
	stats := aggregate.ComputeStats(*snap)
	data := performanceDocument{
		From:             r.FromParam(),
		To:               r.ToParam(),
		Generated:        e.locale.DateTime(e.now()),
		TotalFeeders:     stats.TotalFeeders,
		TotalConsumption: stats.TotalConsumption,
		Online:           online,
		Offline:          offline,
		LowUptime:        aggregate.LowUptimeOnline(online),
		OnlineShare:      aggregate.Share(len(online), len(all), 1),
		OfflineShare:     aggregate.Share(len(offline), len(all), 1),
		Zones:            aggregate.ComputeZoneRollup(*snap),
	}
	out, err := e.render("performance", data)
	if err != nil {
		return nil, err
	}
	return &Blob{Name: PerformanceDocumentName(r), ContentType: ContentTypeDocument, Data: out}, nil
}

func (e *Encoder) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s document: %w", name, err)
	}
	return buf.Bytes(), nil
}

const feederDocumentTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Feeder Report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 40px; }
    h1 { color: #2563eb; border-bottom: 2px solid #2563eb; padding-bottom: 10px; }
    h2 { color: #1f2937; margin-top: 30px; }
    .info-section { background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0; }
    .info-row { display: flex; margin: 8px 0; }
    .info-label { font-weight: bold; width: 150px; }
    table { width: 100%; border-collapse: collapse; margin-top: 20px; }
    th, td { border: 1px solid #d1d5db; padding: 12px; text-align: left; }
    th { background-color: #2563eb; color: white; }
    tr:nth-child(even) { background-color: #f9fafb; }
    .summary-box { background: #dbeafe; padding: 15px; border-radius: 8px; margin: 10px 0; }
    .footer { margin-top: 40px; text-align: center; color: #6b7280; font-size: 12px; }
  </style>
</head>
<body>
  <h1>Power Distribution Feeder Report</h1>

  <div class="info-section">
    <h2>Feeder Information</h2>
    <div class="info-row"><span class="info-label">Feeder Name:</span><span>{{.Feeder.Name}}</span></div>
    <div class="info-row"><span class="info-label">Zone:</span><span>{{.Feeder.Zone}}</span></div>
    <div class="info-row"><span class="info-label">Station:</span><span>{{.Feeder.Station}}</span></div>
    <div class="info-row"><span class="info-label">Voltage Class:</span><span>{{.Feeder.VoltageClass}}</span></div>
    <div class="info-row"><span class="info-label">Trading Point:</span><span>{{.Feeder.TradingPoint}}</span></div>
    <div class="info-row"><span class="info-label">Report Period:</span><span>{{.From}} to {{.To}}</span></div>
  </div>

  <h2>Summary Statistics</h2>
  <div class="summary-box">
    <div class="info-row"><span class="info-label">Total Consumption:</span><span>{{num .Totals.TotalConsumption}} kWh</span></div>
    <div class="info-row"><span class="info-label">Average Uptime:</span><span>{{figure .Totals.AvgUptime}} hours</span></div>
    <div class="info-row"><span class="info-label">Data Points:</span><span>{{len .Records}} snapshots</span></div>
  </div>

  <h2>Detailed Records</h2>
  <table>
    <thead>
      <tr><th>Timestamp</th><th>Consumption (kWh)</th><th>Uptime (hours)</th><th>Status</th></tr>
    </thead>
    <tbody>
      {{- range .Records}}
      <tr><td>{{datetime .SnapshotTime}}</td><td>{{num .ConsumptionKWh}}</td><td>{{.UptimeHours}}</td><td>{{.Status}}</td></tr>
      {{- end}}
    </tbody>
  </table>

  <div class="footer">
    Report Generated: {{.Generated}}<br>
    Power Distribution Monitoring System
  </div>
</body>
</html>
`

const performanceDocumentTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Daily Feeder Performance Report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 40px; color: #1f2937; }
    h1 { color: #2563eb; border-bottom: 3px solid #2563eb; padding-bottom: 15px; margin-bottom: 30px; }
    h2 { color: #1f2937; margin-top: 40px; background: #f3f4f6; padding: 12px; border-left: 4px solid #2563eb; }
    .report-header { background: #dbeafe; padding: 20px; border-radius: 8px; margin-bottom: 30px; }
    .report-info { display: flex; justify-content: space-between; margin: 10px 0; }
    .summary-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 20px; margin: 20px 0; }
    .summary-card { background: #f9fafb; border: 2px solid #e5e7eb; padding: 20px; border-radius: 8px; text-align: center; }
    .summary-card h3 { margin: 0; color: #6b7280; font-size: 14px; font-weight: normal; }
    .summary-card .value { font-size: 32px; font-weight: bold; color: #2563eb; margin: 10px 0; }
    .summary-card .label { color: #9ca3af; font-size: 12px; }
    table { width: 100%; border-collapse: collapse; margin: 20px 0; }
    th, td { border: 1px solid #d1d5db; padding: 12px; text-align: left; font-size: 13px; }
    th { background-color: #2563eb; color: white; font-weight: 600; }
    tr:nth-child(even) { background-color: #f9fafb; }
    .status-online { background: #d1fae5; color: #065f46; padding: 4px 8px; border-radius: 4px; font-weight: 600; }
    .status-offline { background: #fee2e2; color: #991b1b; padding: 4px 8px; border-radius: 4px; font-weight: 600; }
    .footer { margin-top: 60px; text-align: center; color: #6b7280; font-size: 12px; border-top: 2px solid #e5e7eb; padding-top: 20px; }
    .low-performance { background-color: #fef3c7 !important; }
    .zone-section { margin: 30px 0; padding: 20px; background: #f9fafb; border-radius: 8px; }
    .all-clear { padding: 20px; background: #d1fae5; border-radius: 8px; }
  </style>
</head>
<body>
  <h1>⚡ Daily Feeder Performance Monitoring Report</h1>

  <div class="report-header">
    <h3>Report Information</h3>
    <div class="report-info">
      <span><strong>Report Period:</strong> {{.From}} to {{.To}}</span>
      <span><strong>Generated:</strong> {{.Generated}}</span>
    </div>
    <div class="report-info">
      <span><strong>Total Feeders:</strong> {{.TotalFeeders}}</span>
      <span><strong>System:</strong> Power Distribution Monitoring</span>
    </div>
  </div>

  <div class="summary-grid">
    <div class="summary-card">
      <h3>Total Consumption</h3>
      <div class="value">{{num .TotalConsumption}}</div>
      <div class="label">kWh</div>
    </div>
    <div class="summary-card">
      <h3>Online Feeders</h3>
      <div class="value">{{len .Online}}</div>
      <div class="label">{{figure .OnlineShare}}% operational</div>
    </div>
    <div class="summary-card">
      <h3>Offline Feeders</h3>
      <div class="value">{{len .Offline}}</div>
      <div class="label">{{figure .OfflineShare}}% down</div>
    </div>
  </div>

  <h2>📊 Performance Summary by Zone</h2>
  {{- range .Zones}}
  <div class="zone-section">
    <h3>{{.Name}}</h3>
    <div><strong>Total Feeders:</strong> {{.FeederCount}}</div>
    <div><strong>Online:</strong> {{.ActiveCount}}</div>
    <div><strong>Consumption:</strong> {{num .Consumption}} kWh</div>
    <div><strong>Avg Uptime:</strong> {{figure .AvgUptime}}h</div>
  </div>
  {{- end}}

  <h2>✅ Online Feeders ({{len .Online}})</h2>
  <table>
    <thead>
      <tr><th>Feeder Name</th><th>Zone</th><th>Trading Point</th><th>Consumption (kWh)</th><th>Uptime (hours)</th><th>Voltage Class</th><th>Status</th></tr>
    </thead>
    <tbody>
      {{- range .Online}}
      <tr{{if lowUptime .}} class="low-performance"{{end}}><td><strong>{{.Name}}</strong></td><td>{{.Zone}}</td><td>{{.TradingPoint}}</td><td><strong>{{num .ConsumptionKWh}}</strong></td><td>{{.UptimeHours}}{{if lowUptime .}} ⚠️{{end}}</td><td>{{.VoltageClass}}</td><td><span class="status-online">ONLINE</span></td></tr>
      {{- end}}
    </tbody>
  </table>

  <h2>❌ Offline Feeders ({{len .Offline}})</h2>
  {{- if .Offline}}
  <table>
    <thead>
      <tr><th>Feeder Name</th><th>Zone</th><th>Trading Point</th><th>Last Consumption (kWh)</th><th>Voltage Class</th><th>Station</th><th>Status</th></tr>
    </thead>
    <tbody>
      {{- range .Offline}}
      <tr><td><strong>{{.Name}}</strong></td><td>{{.Zone}}</td><td>{{.TradingPoint}}</td><td>{{num .ConsumptionKWh}}</td><td>{{.VoltageClass}}</td><td>{{.Station}}</td><td><span class="status-offline">OFFLINE</span></td></tr>
      {{- end}}
    </tbody>
  </table>
  {{- else}}
  <p class="all-clear">✅ No offline feeders - All systems operational!</p>
  {{- end}}

  <h2>⚠️ Performance Alerts</h2>
  {{- if .LowUptime}}
  <table>
    <thead>
      <tr><th>Feeder Name</th><th>Zone</th><th>Uptime (hours)</th><th>Issue</th></tr>
    </thead>
    <tbody>
      {{- range .LowUptime}}
      <tr class="low-performance"><td><strong>{{.Name}}</strong></td><td>{{.Zone}}</td><td>{{.UptimeHours}}</td><td>⚠️ Low uptime detected</td></tr>
      {{- end}}
    </tbody>
  </table>
  {{- else}}
  <p class="all-clear">✅ No performance issues detected</p>
  {{- end}}

  <div class="footer">
    <strong>Power Distribution Monitoring System</strong><br>
    Report Generated: {{.Generated}}<br>
    Period: {{.From}} to {{.To}}
  </div>
</body>
</html>
`
