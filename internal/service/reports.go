package service

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/history"
	"github.com/onction/power-dashboard/internal/report"
)

// ReportArchive keeps a copy of every generated report.
type ReportArchive interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type ReportService struct {
	enc       *report.Encoder
	snapshots *SnapshotService
	history   *history.Store
	archive   ReportArchive
	prefix    string
	now       func() time.Time
}

// DefaultReportRange is yesterday through today, as UTC dates.
func DefaultReportRange(now time.Time) domain.DateRange {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return domain.DateRange{From: today.AddDate(0, 0, -1), To: today}
}

// FeederCSV exports the current history series.
func (s *ReportService) FeederCSV(ctx context.Context) (*report.Blob, error) {
	series, ok := s.history.Current()
	if !ok {
		return nil, report.ErrNothingToExport
	}
	return s.keep(ctx, func() (*report.Blob, error) {
		return s.enc.FeederHistoryCSV(&series.Feeder, series.Records, series.Range)
	})
}

// FeederDocument exports the current history series as a document.
func (s *ReportService) FeederDocument(ctx context.Context) (*report.Blob, error) {
	series, ok := s.history.Current()
	if !ok {
		return nil, report.ErrNothingToExport
	}
	return s.keep(ctx, func() (*report.Blob, error) {
		return s.enc.FeederHistoryDocument(&series.Feeder, series.Records, series.Range)
	})
}

// FeederText exports the current history series as a plain-text report.
func (s *ReportService) FeederText(ctx context.Context) (*report.Blob, error) {
	series, ok := s.history.Current()
	if !ok {
		return nil, report.ErrNothingToExport
	}
	return s.keep(ctx, func() (*report.Blob, error) {
		return s.enc.FeederHistoryText(&series.Feeder, series.Records, series.Range)
	})
}

// FeedersCSV exports every feeder of the current snapshot. A zero range
// defaults to yesterday..today.
func (s *ReportService) FeedersCSV(ctx context.Context, r domain.DateRange) (*report.Blob, error) {
	st, err := s.snapshots.Current()
	if err != nil {
		return nil, report.ErrNothingToExport
	}
	r = s.reportRange(r)
	return s.keep(ctx, func() (*report.Blob, error) {
		return s.enc.FeedersCSV(&st.Snapshot, r)
	})
}

// PerformanceDocument exports the all-feeders document for the current snapshot.
func (s *ReportService) PerformanceDocument(ctx context.Context, r domain.DateRange) (*report.Blob, error) {
	st, err := s.snapshots.Current()
	if err != nil {
		return nil, report.ErrNothingToExport
	}
	r = s.reportRange(r)
	return s.keep(ctx, func() (*report.Blob, error) {
		return s.enc.PerformanceDocument(&st.Snapshot, r)
	})
}

func (s *ReportService) reportRange(r domain.DateRange) domain.DateRange {
	def := DefaultReportRange(s.now())
	if r.From.IsZero() {
		r.From = def.From
	}
	if r.To.IsZero() {
		r.To = def.To
	}
	return r
}

// keep builds a blob and, when an archive is configured, uploads a copy.
// Archive failures are logged; the download still succeeds.
func (s *ReportService) keep(ctx context.Context, build func() (*report.Blob, error)) (*report.Blob, error) {
	blob, err := build()
	if err != nil {
		return nil, err
	}
	log.Info().Str("name", blob.Name).Str("size", humanize.Bytes(uint64(len(blob.Data)))).Msg("report generated")
	if s.archive == nil {
		return blob, nil
	}
	key := report.ArchiveKey(s.prefix, blob)
	if _, err := s.archive.UploadReport(ctx, key, blob.Data, blob.ContentType); err != nil {
		log.Error().Err(err).Str("key", key).Msg("report archive upload failed")
	}
	return blob, nil
}
