package service

import (
	"context"
	"time"

	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/history"
	"github.com/onction/power-dashboard/internal/report"
)

// Fetcher is the metrics source; *metrics.Client satisfies it.
type Fetcher interface {
	SnapshotFetcher
	history.Fetcher
}

type Services struct {
	Snapshots *SnapshotService
	History   *history.Store
	Reports   *ReportService
}

type options struct {
	now           func() time.Time
	sinks         []AlertSink
	archives      []SnapshotArchive
	reportArchive ReportArchive
	reportPrefix  string
}

type Option func(*options)

// WithClock overrides the wall clock used for default ranges and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithAlertSink adds a destination for newly raised alerts.
func WithAlertSink(s AlertSink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// WithSnapshotArchive adds a destination for live snapshots.
func WithSnapshotArchive(a SnapshotArchive) Option {
	return func(o *options) { o.archives = append(o.archives, a) }
}

// WithReportArchive uploads a copy of every generated report under prefix.
func WithReportArchive(a ReportArchive, prefix string) Option {
	return func(o *options) {
		o.reportArchive = a
		o.reportPrefix = prefix
	}
}

func New(f Fetcher, enc *report.Encoder, opts ...Option) *Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	snaps := NewSnapshotService(f, o.sinks, o.archives)
	snaps.now = o.now
	store := history.NewStore(f, history.WithClock(o.now))
	return &Services{
		Snapshots: snaps,
		History:   store,
		Reports: &ReportService{
			enc:       enc,
			snapshots: snaps,
			history:   store,
			archive:   o.reportArchive,
			prefix:    o.reportPrefix,
			now:       o.now,
		},
	}
}

// SelectFeeder looks up id in the installed snapshot and loads its history.
// A zero range selects the default window.
func (s *Services) SelectFeeder(ctx context.Context, id int64, r domain.DateRange) (*history.Series, error) {
	f, err := s.Snapshots.Feeder(id)
	if err != nil {
		return nil, err
	}
	if r.IsZero() {
		return s.History.Select(ctx, f)
	}
	if r.From.IsZero() || r.To.IsZero() {
		def := history.DefaultRange(s.Reports.now())
		if r.From.IsZero() {
			r.From = def.From
		}
		if r.To.IsZero() {
			r.To = def.To
		}
	}
	return s.History.Load(ctx, f, r)
}
