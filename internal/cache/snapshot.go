package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// snapshotSchemaVersion is the version prefix for snapshot cache keys.
// Bump this when the snapshot serialisation format changes incompatibly;
// entries under old versions are simply never read again.
const snapshotSchemaVersion = 1

// SnapshotStore persists status snapshots keyed by appliance serial number.
//
// Entries are written only for fully-initialised sessions (the session
// enforces this), so a restored snapshot is always complete.
type SnapshotStore struct {
	store *Store
}

// NewSnapshotStore creates a snapshot store on a cache Store.
func NewSnapshotStore(store *Store) *SnapshotStore {
	return &SnapshotStore{store: store}
}

// snapshotKey builds the versioned, serial-scoped cache key.
func snapshotKey(serial string) string {
	return fmt.Sprintf("%d:%s", snapshotSchemaVersion, serial)
}

// Restore reads the cached snapshot for a serial number.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - serial: Appliance serial number
//
// Returns:
//   - map[string]any: The snapshot fields, or nil with ErrNotFound
//   - error: ErrNotFound if no entry exists, otherwise storage/decode errors
func (s *SnapshotStore) Restore(ctx context.Context, serial string) (map[string]any, error) {
	entry, err := s.store.Get(ctx, snapshotKey(serial))
	if err != nil {
		return nil, err
	}

	var snapshot map[string]any
	if err := json.Unmarshal([]byte(entry.Value), &snapshot); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot for %s: %w", serial, err)
	}

	return snapshot, nil
}

// Store persists a snapshot for a serial number.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - serial: Appliance serial number
//   - snapshot: Snapshot fields to persist
//
// Returns:
//   - error: nil on success, otherwise encode/storage errors
func (s *SnapshotStore) Store(ctx context.Context, serial string, snapshot map[string]any) error {
	if len(snapshot) == 0 {
		return fmt.Errorf("cache: refusing to store empty snapshot for %s", serial)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot for %s: %w", serial, err)
	}

	return s.store.Put(ctx, snapshotKey(serial), string(data))
}
