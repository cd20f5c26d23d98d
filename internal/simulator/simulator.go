// Package simulator serves a stand-in metrics API with the same routes and
// envelopes as the real one, for local development and integration tests.
package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/history"
)

// maxHistoryDays bounds synthesized series.
const maxHistoryDays = 31

// Source produces the data served by the simulator.
type Source interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	History(ctx context.Context, feederID int64, r domain.DateRange) ([]domain.HistoryRecord, error)
}

// FixtureSource jitters the fixture snapshot and synthesizes daily history.
type FixtureSource struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFixtureSource(seed uint64, now func() time.Time) *FixtureSource {
	if now == nil {
		now = time.Now
	}
	return &FixtureSource{now: now, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Snapshot returns the fixture with consumption moved by up to ±10%, uptime
// moved by up to ±1h inside [0, 24], and the capture time set to now.
func (s *FixtureSource) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.FixtureSnapshot()
	snap.SnapshotTime = domain.NewTimestamp(s.now().Truncate(time.Second))
	for zi := range snap.Zones {
		for ti := range snap.Zones[zi].TradingPoints {
			feeders := snap.Zones[zi].TradingPoints[ti].Feeders
			for fi := range feeders {
				f := &feeders[fi]
				if !f.Online() {
					continue
				}
				f.ConsumptionKWh = math.Round(f.ConsumptionKWh * (0.9 + 0.2*s.rng.Float64()))
				f.UptimeHours = math.Round(clamp(f.UptimeHours+2*s.rng.Float64()-1, 0, 24)*10) / 10
			}
		}
	}
	return snap, nil
}

// History synthesizes one reading per day of r at 06:00. Values depend only
// on the feeder id and the day, so repeated requests agree.
func (s *FixtureSource) History(ctx context.Context, feederID int64, r domain.DateRange) ([]domain.HistoryRecord, error) {
	def := history.DefaultRange(s.now())
	if r.From.IsZero() {
		r.From = def.From
	}
	if r.To.IsZero() {
		r.To = def.To
	}

	out := []domain.HistoryRecord{}
	day := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 6, 0, 0, 0, time.UTC)
	for i := 0; i < maxHistoryDays && r.Contains(day); i++ {
		rng := rand.New(rand.NewPCG(uint64(feederID), uint64(day.Unix())))
		uptime := math.Round(24*rng.Float64()*10) / 10
		status := domain.StatusOnline
		if uptime < 1 {
			status = domain.StatusOffline
		}
		out = append(out, domain.HistoryRecord{
			SnapshotTime:   domain.NewTimestamp(day),
			ConsumptionKWh: math.Round(2000 + 18000*rng.Float64()),
			UptimeHours:    uptime,
			Status:         status,
		})
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ArchiveReader is satisfied by *repository.Repos.
type ArchiveReader interface {
	LatestSnapshot(ctx context.Context) (domain.Snapshot, error)
	FeederHistory(ctx context.Context, feederID int64, r domain.DateRange) ([]domain.HistoryRecord, error)
}

// ArchiveSource replays archived snapshots.
type ArchiveSource struct {
	repo ArchiveReader
}

func NewArchiveSource(repo ArchiveReader) *ArchiveSource {
	return &ArchiveSource{repo: repo}
}

func (a *ArchiveSource) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return a.repo.LatestSnapshot(ctx)
}

func (a *ArchiveSource) History(ctx context.Context, feederID int64, r domain.DateRange) ([]domain.HistoryRecord, error) {
	return a.repo.FeederHistory(ctx, feederID, r)
}

// Register mounts the metrics API routes.
func Register(app *fiber.App, src Source) {
	app.Get("/snapshot", func(c *fiber.Ctx) error {
		snap, err := src.Snapshot(c.UserContext())
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(fiber.Map{"data": snap})
	})

	app.Get("/:id/history", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid feeder id"})
		}
		r, err := domain.ParseDateRange(c.Query("from"), c.Query("to"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		records, err := src.History(c.UserContext(), id, r)
		if err != nil {
			return serverError(c, err)
		}
		return c.JSON(fiber.Map{"data": records})
	})
}

var errUnavailable = errors.New("simulated source unavailable")

func serverError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("simulator request failed")
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": errUnavailable.Error()})
}
