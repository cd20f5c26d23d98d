package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/metrics"
)

var (
	ErrNoSnapshot     = errors.New("no snapshot loaded yet")
	ErrFeederNotFound = errors.New("feeder not found in current snapshot")
	ErrSuperseded     = errors.New("snapshot refresh superseded by a newer request")
)

// SnapshotFetcher is satisfied by *metrics.Client.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) metrics.SnapshotResult
}

// AlertSink receives alerts that were newly raised by a live snapshot.
type AlertSink interface {
	PublishAlerts(ctx context.Context, snapshotTime time.Time, alerts []domain.Alert) error
}

// SnapshotArchive stores live snapshots.
type SnapshotArchive interface {
	ArchiveSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// State is an installed snapshot together with its derived statistics.
type State struct {
	Snapshot  domain.Snapshot `json:"data"`
	Source    metrics.Source  `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stats     aggregate.Stats `json:"-"`
}

// SnapshotService owns the current snapshot. A refresh replaces it whole.
type SnapshotService struct {
	fetcher  SnapshotFetcher
	sinks    []AlertSink
	archives []SnapshotArchive
	now      func() time.Time

	mu         sync.RWMutex
	issued     uint64
	current    *State
	liveAlerts []domain.Alert
}

func NewSnapshotService(f SnapshotFetcher, sinks []AlertSink, archives []SnapshotArchive) *SnapshotService {
	return &SnapshotService{fetcher: f, sinks: sinks, archives: archives, now: time.Now}
}

// Refresh fetches a snapshot and installs it. Fallback snapshots are
// installed for display but never archived or alerted on.
func (s *SnapshotService) Refresh(ctx context.Context) (*State, error) {
	s.mu.Lock()
	s.issued++
	token := s.issued
	s.mu.Unlock()

	res := s.fetcher.FetchSnapshot(ctx)
	if res.Fallback() {
		log.Warn().Err(res.Err).Msg("snapshot fetch failed, using fixture snapshot")
	}
	st := &State{
		Snapshot:  res.Snapshot,
		Source:    res.Source,
		FetchedAt: s.now(),
		Stats:     aggregate.ComputeStats(res.Snapshot),
	}

	s.mu.Lock()
	if token != s.issued {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.current = st
	var fresh []domain.Alert
	if !res.Fallback() {
		fresh = aggregate.NewAlerts(s.liveAlerts, st.Stats.Alerts)
		s.liveAlerts = st.Stats.Alerts
	}
	s.mu.Unlock()

	log.Info().
		Str("source", string(st.Source)).
		Int("feeders", st.Stats.TotalFeeders).
		Int("alerts", len(st.Stats.Alerts)).
		Msg("snapshot installed")

	if !res.Fallback() {
		s.fanOut(ctx, st, fresh)
	}
	return st, nil
}

func (s *SnapshotService) fanOut(ctx context.Context, st *State, fresh []domain.Alert) {
	for _, a := range s.archives {
		if err := a.ArchiveSnapshot(ctx, st.Snapshot); err != nil {
			log.Error().Err(err).Msg("archive snapshot failed")
		}
	}
	if len(fresh) == 0 {
		return
	}
	for _, sink := range s.sinks {
		if err := sink.PublishAlerts(ctx, st.Snapshot.SnapshotTime.Time, fresh); err != nil {
			log.Error().Err(err).Int("alerts", len(fresh)).Msg("publish alerts failed")
		}
	}
}

// Current returns the installed snapshot.
func (s *SnapshotService) Current() (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// Feeder finds a feeder by id in the installed snapshot.
func (s *SnapshotService) Feeder(id int64) (domain.PlacedFeeder, error) {
	st, err := s.Current()
	if err != nil {
		return domain.PlacedFeeder{}, err
	}
	for _, f := range aggregate.Flatten(st.Snapshot) {
		if f.FeederID == id {
			return f, nil
		}
	}
	return domain.PlacedFeeder{}, ErrFeederNotFound
}

// Run refreshes immediately and then every interval until ctx is done,
// calling onUpdate after each installed snapshot.
func (s *SnapshotService) Run(ctx context.Context, interval time.Duration, onUpdate func(*State)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if st, err := s.Refresh(ctx); err == nil && onUpdate != nil {
			onUpdate(st)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
