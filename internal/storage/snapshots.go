package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"
)

// Snapshot is the last good response body of one resource.
type Snapshot struct {
	Key       string    `json:"key"`
	Tenant    string    `json:"tenant"`
	Resource  string    `json:"resource"`
	Body      []byte    `json:"body,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SnapshotKey identifies a resource by tenant, path and query.
func SnapshotKey(tenant, resource string, query url.Values) string {
	key := tenant + "/" + resource
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

// SnapshotStore keeps the last good responses in SQLite
type SnapshotStore struct {
	db           *DB
	maxSnapshots int
}

// NewSnapshotStore creates a snapshot store holding at most maxSnapshots rows
func NewSnapshotStore(db *DB, maxSnapshots int) *SnapshotStore {
	if maxSnapshots <= 0 {
		maxSnapshots = 500
	}
	return &SnapshotStore{
		db:           db,
		maxSnapshots: maxSnapshots,
	}
}

// Put stores or replaces the snapshot of a resource
func (s *SnapshotStore) Put(snapshot Snapshot) error {
	query := `
		INSERT INTO snapshots (cache_key, tenant, resource, body, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.Exec(query, snapshot.Key, snapshot.Tenant, snapshot.Resource, snapshot.Body, snapshot.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := s.cleanupOldSnapshots(); err != nil {
		log.Printf("[SnapshotStore.Put] failed to cleanup old snapshots: %v", err)
	}

	return nil
}

// Get retrieves the snapshot stored under key
func (s *SnapshotStore) Get(key string) (*Snapshot, error) {
	query := `
		SELECT cache_key, tenant, resource, body, fetched_at
		FROM snapshots
		WHERE cache_key = ?
	`

	var snapshot Snapshot
	err := s.db.QueryRow(query, key).Scan(
		&snapshot.Key, &snapshot.Tenant, &snapshot.Resource, &snapshot.Body, &snapshot.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return &snapshot, nil
}

// Recent lists the most recently fetched snapshots of a tenant, without
// their bodies
func (s *SnapshotStore) Recent(tenant string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT cache_key, tenant, resource, fetched_at
		FROM snapshots
		WHERE tenant = ?
		ORDER BY fetched_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snapshot Snapshot
		if err := rows.Scan(&snapshot.Key, &snapshot.Tenant, &snapshot.Resource, &snapshot.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// Count returns the number of stored snapshots
func (s *SnapshotStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}

// cleanupOldSnapshots removes the oldest snapshots beyond the maximum count
func (s *SnapshotStore) cleanupOldSnapshots() error {
	query := `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots
			ORDER BY fetched_at DESC, id DESC
			LIMIT ?
		)
	`

	_, err := s.db.Exec(query, s.maxSnapshots)
	return err
}
