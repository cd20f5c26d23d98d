// Package history holds the consumption series of the currently selected
// feeder. It is not a cache: every selection or range change is one fresh
// fetch, and only the most recently issued fetch may replace the series.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/metrics"
)

// DefaultWindowDays is the span applied when a feeder is selected without a range.
const DefaultWindowDays = 7

// ErrSuperseded is returned by a load that finished after a newer one was issued.
var ErrSuperseded = errors.New("history load superseded by a newer request")

// Fetcher is satisfied by *metrics.Client.
type Fetcher interface {
	FetchHistory(ctx context.Context, feederID int64, r domain.DateRange) metrics.HistoryResult
}

// Series is the current history for one feeder and range.
type Series struct {
	Feeder  domain.PlacedFeeder    `json:"feeder"`
	Range   domain.DateRange       `json:"-"`
	Records []domain.HistoryRecord `json:"records"`
	Source  metrics.Source         `json:"source"`
	Token   uint64                 `json:"token"`
}

type Store struct {
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	issued  uint64
	current *Series
}

type Option func(*Store)

// WithClock overrides the wall clock used for the default range.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(f Fetcher, opts ...Option) *Store {
	s := &Store{fetcher: f, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultRange is the last DefaultWindowDays days ending on the UTC date of now.
func DefaultRange(now time.Time) domain.DateRange {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return domain.DateRange{From: today.AddDate(0, 0, -DefaultWindowDays), To: today}
}

// Select loads a feeder's history over the default range.
func (s *Store) Select(ctx context.Context, f domain.PlacedFeeder) (*Series, error) {
	return s.Load(ctx, f, DefaultRange(s.now()))
}

// Load fetches f's history over r and makes it the current series, unless a
// later Load or Clear was issued while this one was in flight. Live records
// outside r are dropped; the fixture series is kept as is.
func (s *Store) Load(ctx context.Context, f domain.PlacedFeeder, r domain.DateRange) (*Series, error) {
	s.mu.Lock()
	s.issued++
	token := s.issued
	s.mu.Unlock()

	res := s.fetcher.FetchHistory(ctx, f.FeederID, r)
	records := res.Records
	if res.Fallback() {
		log.Warn().Err(res.Err).Int64("feeder_id", f.FeederID).Msg("history fetch failed, using fixture series")
	} else if clipped := Window(records, r); len(clipped) != len(records) {
		log.Debug().Int64("feeder_id", f.FeederID).Int("dropped", len(records)-len(clipped)).Msg("dropping records outside range")
		records = clipped
	}
	series := &Series{Feeder: f, Range: r, Records: records, Source: res.Source, Token: token}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.issued {
		log.Debug().Uint64("token", token).Uint64("latest", s.issued).Msg("discarding superseded history")
		return nil, ErrSuperseded
	}
	s.current = series
	return series, nil
}

// Current returns the series most recently installed.
func (s *Store) Current() (*Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Clear deselects the feeder and invalidates loads still in flight.
func (s *Store) Clear() {
	s.mu.Lock()
	s.issued++
	s.current = nil
	s.mu.Unlock()
}

// Window returns the records whose timestamps fall inside r, keeping order.
// An empty result is an empty slice, never nil.
func Window(records []domain.HistoryRecord, r domain.DateRange) []domain.HistoryRecord {
	out := make([]domain.HistoryRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.SnapshotTime.Time) {
			out = append(out, rec)
		}
	}
	return out
}
