package http

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/aggregate"
	"github.com/onction/power-dashboard/internal/cloud"
	"github.com/onction/power-dashboard/internal/domain"
	"github.com/onction/power-dashboard/internal/history"
	"github.com/onction/power-dashboard/internal/report"
	"github.com/onction/power-dashboard/internal/service"
)

// ReportLister lists archived reports.
type ReportLister interface {
	ListReports(ctx context.Context, prefix string) ([]cloud.ReportObject, error)
}

// AlertLog answers per-feeder alert history.
type AlertLog interface {
	FeederAlerts(ctx context.Context, feederID int64, limit int32) ([]cloud.AlertRecord, error)
}

// HistoryArchive answers archived readings for a feeder.
type HistoryArchive interface {
	FeederHistory(ctx context.Context, feederID int64, r domain.DateRange) ([]domain.HistoryRecord, error)
}

type handlers struct {
	svcs         *service.Services
	topN         int
	reports      ReportLister
	reportPrefix string
	alerts       AlertLog
	archive      HistoryArchive
}

type Option func(*handlers)

// WithTopConsumers sets the ranking length used when n is not given.
func WithTopConsumers(n int) Option {
	return func(h *handlers) { h.topN = n }
}

// WithReportLister exposes archived reports under prefix.
func WithReportLister(l ReportLister, prefix string) Option {
	return func(h *handlers) {
		h.reports = l
		h.reportPrefix = prefix
	}
}

// WithAlertLog exposes the per-feeder alert log.
func WithAlertLog(a AlertLog) Option {
	return func(h *handlers) { h.alerts = a }
}

// WithHistoryArchive exposes archived feeder readings.
func WithHistoryArchive(a HistoryArchive) Option {
	return func(h *handlers) { h.archive = a }
}

func Register(app *fiber.App, svcs *service.Services, opts ...Option) {
	h := &handlers{svcs: svcs, topN: aggregate.DefaultTopConsumers}
	for _, opt := range opts {
		opt(h)
	}

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	g := app.Group("/api")
	g.Get("/snapshot", h.snapshot)
	g.Post("/snapshot/refresh", h.refresh)
	g.Get("/stats", h.stats)
	g.Get("/zones", h.zones)
	g.Get("/voltage-classes", h.voltageClasses)
	g.Get("/top-consumers", h.topConsumers)
	g.Get("/alerts", h.currentAlerts)
	g.Get("/feeders", h.feeders)
	g.Post("/feeders/:id/history", h.selectFeeder)
	g.Get("/history", h.currentHistory)
	g.Delete("/history", h.clearHistory)

	r := g.Group("/reports")
	r.Get("/feeder.csv", h.download(func(c *fiber.Ctx) (*report.Blob, error) {
		return svcs.Reports.FeederCSV(c.UserContext())
	}))
	r.Get("/feeder.doc", h.download(func(c *fiber.Ctx) (*report.Blob, error) {
		return svcs.Reports.FeederDocument(c.UserContext())
	}))
	r.Get("/feeder.txt", h.download(func(c *fiber.Ctx) (*report.Blob, error) {
		return svcs.Reports.FeederText(c.UserContext())
	}))
	r.Get("/feeders.csv", h.download(func(c *fiber.Ctx) (*report.Blob, error) {
		dr, err := dateRange(c)
		if err != nil {
			return nil, err
		}
		return svcs.Reports.FeedersCSV(c.UserContext(), dr)
	}))
	r.Get("/performance.doc", h.download(func(c *fiber.Ctx) (*report.Blob, error) {
		dr, err := dateRange(c)
		if err != nil {
			return nil, err
		}
		return svcs.Reports.PerformanceDocument(c.UserContext(), dr)
	}))
	if h.reports != nil {
		r.Get("/archive", h.listReports)
	}
	if h.alerts != nil {
		g.Get("/feeders/:id/alerts", h.feederAlerts)
	}
	if h.archive != nil {
		g.Get("/feeders/:id/archive", h.archivedHistory)
	}
}

// errBadRequest marks errors caused by request parameters.
type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return errBadRequest{fmt.Errorf(format, args...)}
}

func fail(c *fiber.Ctx, err error) error {
	var bad errBadRequest
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &bad):
		status = fiber.StatusBadRequest
	case errors.Is(err, report.ErrNothingToExport):
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, service.ErrFeederNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrNoSnapshot):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, service.ErrSuperseded), errors.Is(err, history.ErrSuperseded):
		status = fiber.StatusConflict
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *handlers) snapshot(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Refresh(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st)
}

func (h *handlers) stats(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"source": st.Source, "stats": st.Stats})
}

func (h *handlers) zones(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(aggregate.ComputeZoneRollup(st.Snapshot))
}

func (h *handlers) voltageClasses(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(aggregate.ComputeVoltageClassDistribution(st.Snapshot))
}

func (h *handlers) topConsumers(c *fiber.Ctx) error {
	n := h.topN
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return fail(c, badRequest("invalid n %q", raw))
		}
		n = v
	}
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(aggregate.ComputeTopConsumers(st.Snapshot, n))
}

func (h *handlers) currentAlerts(c *fiber.Ctx) error {
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(st.Stats.Alerts)
}

func (h *handlers) feeders(c *fiber.Ctx) error {
	status, ok := aggregate.ParseStatusFilter(c.Query("status"))
	if !ok {
		return fail(c, badRequest("invalid status %q", c.Query("status")))
	}
	st, err := h.svcs.Snapshots.Current()
	if err != nil {
		return fail(c, err)
	}
	all := aggregate.Flatten(st.Snapshot)
	return c.JSON(aggregate.FilterFeeders(all, aggregate.Filter{Search: c.Query("search"), Status: status}))
}

func (h *handlers) selectFeeder(c *fiber.Ctx) error {
	id, err := feederID(c)
	if err != nil {
		return fail(c, err)
	}
	dr, err := dateRange(c)
	if err != nil {
		return fail(c, err)
	}
	series, err := h.svcs.SelectFeeder(c.UserContext(), id, dr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(seriesResponse(series))
}

func (h *handlers) currentHistory(c *fiber.Ctx) error {
	series, ok := h.svcs.History.Current()
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(seriesResponse(series))
}

func (h *handlers) clearHistory(c *fiber.Ctx) error {
	h.svcs.History.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}

func seriesResponse(s *history.Series) fiber.Map {
	return fiber.Map{
		"feeder":  s.Feeder,
		"from":    s.Range.FromParam(),
		"to":      s.Range.ToParam(),
		"records": s.Records,
		"source":  s.Source,
		"token":   s.Token,
		"totals":  aggregate.ComputeHistoryTotals(s.Records),
	}
}

func (h *handlers) download(build func(c *fiber.Ctx) (*report.Blob, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		blob, err := build(c)
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, blob.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", blob.Name))
		return c.Send(blob.Data)
	}
}

func (h *handlers) listReports(c *fiber.Ctx) error {
	items, err := h.reports.ListReports(c.UserContext(), h.reportPrefix)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) feederAlerts(c *fiber.Ctx) error {
	id, err := feederID(c)
	if err != nil {
		return fail(c, err)
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		return fail(c, badRequest("invalid limit %d", limit))
	}
	items, err := h.alerts.FeederAlerts(c.UserContext(), id, int32(limit))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) archivedHistory(c *fiber.Ctx) error {
	id, err := feederID(c)
	if err != nil {
		return fail(c, err)
	}
	dr, err := dateRange(c)
	if err != nil {
		return fail(c, err)
	}
	records, err := h.archive.FeederHistory(c.UserContext(), id, dr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"records": records,
		"totals":  aggregate.ComputeHistoryTotals(records),
	})
}

func feederID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid feeder id %q", c.Params("id"))
	}
	return id, nil
}

func dateRange(c *fiber.Ctx) (domain.DateRange, error) {
	dr, err := domain.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return domain.DateRange{}, errBadRequest{err}
	}
	return dr, nil
}
