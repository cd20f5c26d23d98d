package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onction/power-dashboard/internal/domain"
)

// ErrNoSnapshots is returned when the archive is empty.
var ErrNoSnapshots = errors.New("no archived snapshots")

// Schema creates the snapshot archive tables.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            BIGSERIAL PRIMARY KEY,
	snapshot_time TIMESTAMP NOT NULL UNIQUE,
	received_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS feeder_readings (
	snapshot_id     BIGINT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position        INT NOT NULL,
	feeder_id       BIGINT NOT NULL,
	name            TEXT NOT NULL,
	zone            TEXT NOT NULL,
	trading_point   TEXT NOT NULL,
	station         TEXT NOT NULL,
	voltage_class   TEXT NOT NULL,
	consumption_kwh DOUBLE PRECISION NOT NULL,
	uptime_hours    DOUBLE PRECISION NOT NULL,
	status          SMALLINT NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS feeder_readings_feeder_idx ON feeder_readings (feeder_id, snapshot_id);
`

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

// Migrate applies Schema.
func (r *Repos) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// feederRow is one feeder of one archived snapshot.
type feederRow struct {
	SnapshotID int64 `db:"snapshot_id"`
	Position   int   `db:"position"`
	domain.PlacedFeeder
}

// rowsFor flattens a snapshot into rows, keeping traversal order in Position.
func rowsFor(snapshotID int64, snap domain.Snapshot) []feederRow {
	var rows []feederRow
	for _, z := range snap.Zones {
		for _, tp := range z.TradingPoints {
			for _, f := range tp.Feeders {
				rows = append(rows, feederRow{
					SnapshotID:   snapshotID,
					Position:     len(rows),
					PlacedFeeder: domain.PlacedFeeder{Feeder: f, Zone: z.Name, TradingPoint: tp.Name},
				})
			}
		}
	}
	return rows
}

// assemble rebuilds the zone and trading point hierarchy from rows sorted by
// Position. Zones and trading points keep first-seen order.
func assemble(snapshotTime time.Time, rows []feederRow) domain.Snapshot {
	snap := domain.Snapshot{SnapshotTime: domain.NewTimestamp(snapshotTime), Zones: []domain.Zone{}}
	zoneIdx := map[string]int{}
	tpIdx := map[[2]string]int{}
	for _, row := range rows {
		zi, ok := zoneIdx[row.Zone]
		if !ok {
			zi = len(snap.Zones)
			zoneIdx[row.Zone] = zi
			snap.Zones = append(snap.Zones, domain.Zone{Name: row.Zone})
		}
		zone := &snap.Zones[zi]
		key := [2]string{row.Zone, row.TradingPoint}
		ti, ok := tpIdx[key]
		if !ok {
			ti = len(zone.TradingPoints)
			tpIdx[key] = ti
			zone.TradingPoints = append(zone.TradingPoints, domain.TradingPoint{Name: row.TradingPoint})
		}
		tp := &zone.TradingPoints[ti]
		tp.Feeders = append(tp.Feeders, row.Feeder)
	}
	return snap
}

// SaveSnapshot stores a snapshot and its feeders in one transaction and
// returns the snapshot id. Saving the same snapshot time again replaces it.
func (r *Repos) SaveSnapshot(ctx context.Context, snap domain.Snapshot) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE snapshot_time = $1`, snap.SnapshotTime); err != nil {
		return 0, fmt.Errorf("replace snapshot: %w", err)
	}

	var id int64
	if err := tx.GetContext(ctx, &id, `INSERT INTO snapshots(snapshot_time) VALUES ($1) RETURNING id`, snap.SnapshotTime); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	if rows := rowsFor(id, snap); len(rows) > 0 {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO feeder_readings
			(snapshot_id, position, feeder_id, name, zone, trading_point, station, voltage_class, consumption_kwh, uptime_hours, status)
			VALUES (:snapshot_id, :position, :feeder_id, :name, :zone, :trading_point, :station, :voltage_class, :consumption_kwh, :uptime_hours, :status)`, rows)
		if err != nil {
			return 0, fmt.Errorf("insert feeders: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ArchiveSnapshot stores a live snapshot for the dashboard's archive fan-out.
func (r *Repos) ArchiveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	_, err := r.SaveSnapshot(ctx, snap)
	return err
}

// LatestSnapshot rebuilds the most recently archived snapshot.
func (r *Repos) LatestSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var head struct {
		ID           int64     `db:"id"`
		SnapshotTime time.Time `db:"snapshot_time"`
	}
	err := r.db.GetContext(ctx, &head, `SELECT id, snapshot_time FROM snapshots ORDER BY snapshot_time DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, ErrNoSnapshots
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}

	var rows []feederRow
	err = r.db.SelectContext(ctx, &rows, `SELECT snapshot_id, position, feeder_id, name, zone, trading_point, station,
		voltage_class, consumption_kwh, uptime_hours, status
		FROM feeder_readings WHERE snapshot_id = $1 ORDER BY position`, head.ID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("latest snapshot feeders: %w", err)
	}
	return assemble(head.SnapshotTime, rows), nil
}

// FeederHistory lists one feeder's archived readings in ascending time order.
// Both bounds of r are inclusive calendar dates; a zero bound is open.
func (r *Repos) FeederHistory(ctx context.Context, feederID int64, dr domain.DateRange) ([]domain.HistoryRecord, error) {
	out := []domain.HistoryRecord{}
	err := r.db.SelectContext(ctx, &out, `SELECT s.snapshot_time, f.consumption_kwh, f.uptime_hours, f.status
		FROM feeder_readings f JOIN snapshots s ON s.id = f.snapshot_id
		WHERE f.feeder_id = $1
		  AND ($2::date IS NULL OR s.snapshot_time::date >= $2::date)
		  AND ($3::date IS NULL OR s.snapshot_time::date <= $3::date)
		ORDER BY s.snapshot_time`, feederID, dateArg(dr.From), dateArg(dr.To))
	if err != nil {
		return nil, fmt.Errorf("feeder history: %w", err)
	}
	return out, nil
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(domain.DateLayout)
}
