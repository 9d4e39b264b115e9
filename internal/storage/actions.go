package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Admin action kinds
const (
	ActionEnqueue        = "enqueue"
	ActionEnqueueRef     = "enqueue-ref"
	ActionAutohold       = "autohold"
	ActionDeleteAutohold = "autohold-delete"
)

// Admin action outcomes
const (
	OutcomePending = "PENDING"
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

// AdminAction is one privileged request sent to the API
type AdminAction struct {
	UUID        string    `json:"uuid"`
	Kind        string    `json:"kind"`
	Tenant      string    `json:"tenant"`
	Project     string    `json:"project"`
	Target      string    `json:"target"` // change, ref, job or autohold id
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
	Outcome     string    `json:"outcome"`
	Message     string    `json:"message"`
}

// ActionStore records admin actions in SQLite
type ActionStore struct {
	db *DB
}

// NewActionStore creates a new action store
func NewActionStore(db *DB) *ActionStore {
	return &ActionStore{db: db}
}

// Record stores a new admin action
func (s *ActionStore) Record(action AdminAction) error {
	if action.Outcome == "" {
		action.Outcome = OutcomePending
	}

	query := `
		INSERT INTO admin_actions (
			action_uuid, kind, tenant, project, target,
			requested_by, requested_at, outcome, message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		action.UUID, action.Kind, action.Tenant, action.Project, action.Target,
		action.RequestedBy, action.RequestedAt.UTC(), action.Outcome, action.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record admin action: %w", err)
	}
	return nil
}

// Finish sets the outcome of a pending action. Finished actions are never
// overwritten.
func (s *ActionStore) Finish(actionUUID, outcome, message string) error {
	query := `
		UPDATE admin_actions
		SET outcome = ?, message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE action_uuid = ?
		AND outcome = 'PENDING'
	`

	_, err := s.db.Exec(query, outcome, message, actionUUID)
	if err != nil {
		return fmt.Errorf("failed to update admin action: %w", err)
	}
	return nil
}

// Get retrieves an action by UUID
func (s *ActionStore) Get(actionUUID string) (*AdminAction, error) {
	query := `
		SELECT action_uuid, kind, tenant, project, target,
			   requested_by, requested_at, outcome, message
		FROM admin_actions
		WHERE action_uuid = ?
	`

	var action AdminAction
	err := s.db.QueryRow(query, actionUUID).Scan(
		&action.UUID, &action.Kind, &action.Tenant, &action.Project, &action.Target,
		&action.RequestedBy, &action.RequestedAt, &action.Outcome, &action.Message,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("admin action %s: %w", actionUUID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin action: %w", err)
	}
	return &action, nil
}

// Recent retrieves the N most recent actions of tenant, or of every
// tenant when tenant is empty
func (s *ActionStore) Recent(tenant string, limit int) ([]AdminAction, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT action_uuid, kind, tenant, project, target,
			   requested_by, requested_at, outcome, message
		FROM admin_actions
		WHERE tenant = ? OR ? = ''
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, tenant, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin actions: %w", err)
	}
	defer rows.Close()

	var actions []AdminAction
	for rows.Next() {
		var action AdminAction
		err := rows.Scan(
			&action.UUID, &action.Kind, &action.Tenant, &action.Project, &action.Target,
			&action.RequestedBy, &action.RequestedAt, &action.Outcome, &action.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin action: %w", err)
		}
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin actions: %w", err)
	}
	return actions, nil
}
