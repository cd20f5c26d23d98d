package aggregate

import (
	"strings"

	"github.com/onction/power-dashboard/internal/domain"
)

// StatusFilter narrows a feeder listing by status.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// ParseStatusFilter accepts the listing's filter names; "" means all.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(s)) {
	case "", StatusAll:
		return StatusAll, true
	case StatusActive, "online":
		return StatusActive, true
	case StatusInactive, "offline":
		return StatusInactive, true
	}
	return "", false
}

type Filter struct {
	Search string
	Status StatusFilter
}

// FilterFeeders keeps feeders whose name contains Search (case-insensitive)
// and whose status matches. Order is preserved.
func FilterFeeders(feeders []domain.PlacedFeeder, f Filter) []domain.PlacedFeeder {
	needle := strings.ToLower(f.Search)
	out := make([]domain.PlacedFeeder, 0, len(feeders))
	for _, fd := range feeders {
		if needle != "" && !strings.Contains(strings.ToLower(fd.Name), needle) {
			continue
		}
		switch f.Status {
		case StatusActive:
			if !fd.Online() {
				continue
			}
		case StatusInactive:
			if fd.Online() {
				continue
			}
		}
		out = append(out, fd)
	}
	return out
}

// Partition splits feeders into online and offline, each in input order.
func Partition(feeders []domain.PlacedFeeder) (online, offline []domain.PlacedFeeder) {
	for _, f := range feeders {
		if f.Online() {
			online = append(online, f)
		} else {
			offline = append(offline, f)
		}
	}
	return online, offline
}

// LowUptimeOnline returns the online feeders flagged for low uptime.
func LowUptimeOnline(feeders []domain.PlacedFeeder) []domain.PlacedFeeder {
	var out []domain.PlacedFeeder
	for _, f := range feeders {
		if IsLowUptime(f.Feeder) {
			out = append(out, f)
		}
	}
	return out
}

// IsLowUptime reports whether an online feeder sits under LowUptimeHours.
func IsLowUptime(f domain.Feeder) bool {
	return f.Online() && f.UptimeHours < LowUptimeHours
}

// Share is part/total as a percentage rounded to the given decimals; NaN when total is zero.
func Share(part, total int, decimals int) Figure {
	return round(ratio(float64(part), float64(total))*100, decimals)
}

type alertKey struct {
	feederID int64
	reason   domain.AlertReason
}

// NewAlerts returns the alerts in curr that were not already raised in prev
// for the same feeder and reason.
func NewAlerts(prev, curr []domain.Alert) []domain.Alert {
	seen := make(map[alertKey]struct{}, len(prev))
	for _, a := range prev {
		seen[alertKey{a.FeederID, a.Reason}] = struct{}{}
	}
	var out []domain.Alert
	for _, a := range curr {
		if _, ok := seen[alertKey{a.FeederID, a.Reason}]; !ok {
			out = append(out, a)
		}
	}
	return out
}
