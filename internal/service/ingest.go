package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/onction/power-dashboard/internal/domain"
)

// SnapshotStore persists snapshots received from the broker.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) (int64, error)
}

type IngestService struct {
	store SnapshotStore
}

func NewIngestService(store SnapshotStore) *IngestService {
	return &IngestService{store: store}
}

// FromMQTT decodes a published snapshot payload and stores it.
func (s *IngestService) FromMQTT(ctx context.Context, topic string, payload []byte) (int64, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return 0, fmt.Errorf("decode snapshot on %s: %w", topic, err)
	}
	if snap.SnapshotTime.IsZero() {
		return 0, fmt.Errorf("snapshot on %s has no snapshot_time", topic)
	}
	return s.store.SaveSnapshot(ctx, snap)
}
