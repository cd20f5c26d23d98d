package domain

// Status is the reported state of a feeder at snapshot time.
type Status int

const (
	StatusOffline Status = 0
	StatusOnline  Status = 1
)

func (s Status) String() string {
	if s == StatusOnline {
		return "ONLINE"
	}
	return "OFFLINE"
}

// Snapshot is one point-in-time capture of the zone -> trading point -> feeder
// topology. It is replaced wholesale on every fetch.
type Snapshot struct {
	SnapshotTime Timestamp `json:"snapshot_time"`
	Zones        []Zone    `json:"Zone"`
}

type Zone struct {
	Name          string         `json:"zone"`
	TradingPoints []TradingPoint `json:"trading_points"`
}

type TradingPoint struct {
	Name    string   `json:"name"`
	Feeders []Feeder `json:"feeders"`
}

type Feeder struct {
	FeederID       int64   `db:"feeder_id" json:"feeder_id"`
	Name           string  `db:"name" json:"name"`
	ConsumptionKWh float64 `db:"consumption_kwh" json:"consumption_kwh"`
	UptimeHours    float64 `db:"uptime_hours" json:"uptime_hours"`
	VoltageClass   string  `db:"voltage_class" json:"voltage_class"`
	Station        string  `db:"station" json:"station"`
	Status         Status  `db:"status" json:"status"`
}

func (f Feeder) Online() bool { return f.Status == StatusOnline }

// PlacedFeeder is a feeder annotated with the zone and trading point it was
// found under during traversal.
type PlacedFeeder struct {
	Feeder
	Zone         string `db:"zone" json:"zone"`
	TradingPoint string `db:"trading_point" json:"trading_point"`
}

// HistoryRecord is one reading of a single feeder.
type HistoryRecord struct {
	SnapshotTime   Timestamp `db:"snapshot_time" json:"snapshot_time"`
	ConsumptionKWh float64   `db:"consumption_kwh" json:"consumption_kwh"`
	UptimeHours    float64   `db:"uptime_hours" json:"uptime_hours"`
	Status         Status    `db:"status" json:"status"`
}

type AlertReason string

const (
	ReasonOffline   AlertReason = "OFFLINE"
	ReasonLowUptime AlertReason = "LOW_UPTIME"
)

// Alert is derived from a snapshot and never persisted by the core.
type Alert struct {
	FeederID     int64       `json:"feeder_id"`
	Name         string      `json:"name"`
	Zone         string      `json:"zone"`
	TradingPoint string      `json:"trading_point"`
	Reason       AlertReason `json:"reason"`
	UptimeHours  float64     `json:"uptime_hours"`
}
