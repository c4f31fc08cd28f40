package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

func (r *Repository) Workflows() repository.WorkflowRepo { return r }

// Create inserts an empty workflow row, failing if name already exists.
func (r *Repository) Create(ctx context.Context, name string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return &errs.RepositoryError{Op: "create workflow", Cause: err}
	}
	if exists > 0 {
		return errs.ErrAlreadyExists
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO workflows (name, actions_json, created_at, modified_at) VALUES (?, ?, ?, ?)`,
		name, "[]", now, now,
	)
	if err != nil {
		return &errs.RepositoryError{Op: "create workflow", Cause: err}
	}
	return nil
}

// Save upserts the workflow's serialized action list.
func (r *Repository) Save(ctx context.Context, name string, actions []action.Action) error {
	serialized := make([]any, len(actions))
	for i, a := range actions {
		serialized[i] = a.Serialize()
	}
	data, err := json.Marshal(serialized)
	if err != nil {
		return &errs.SerializationError{Op: "marshal workflow", Cause: err}
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflows (name, actions_json, created_at, modified_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE actions_json = VALUES(actions_json), modified_at = VALUES(modified_at)
	`, name, string(data), now, now)
	if err != nil {
		return &errs.RepositoryError{Op: "save workflow", Cause: err}
	}
	return nil
}

// Load reconstructs the workflow's action list.
func (r *Repository) Load(ctx context.Context, name string) ([]action.Action, error) {
	var actionsJSON string
	err := r.db.QueryRowContext(ctx, `SELECT actions_json FROM workflows WHERE name = ?`, name).Scan(&actionsJSON)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, &errs.RepositoryError{Op: "load workflow", Cause: err}
	}
	var raw []any
	if err := json.Unmarshal([]byte(actionsJSON), &raw); err != nil {
		return nil, &errs.SerializationError{Op: "unmarshal workflow", Cause: err}
	}
	return r.factory.CreateList(raw)
}

// Delete removes the workflow row.
func (r *Repository) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE name = ?`, name)
	if err != nil {
		return false, &errs.RepositoryError{Op: "delete workflow", Cause: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns every workflow name.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM workflows ORDER BY name`)
	if err != nil {
		return nil, &errs.RepositoryError{Op: "list workflows", Cause: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &errs.RepositoryError{Op: "list workflows", Cause: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetMetadata returns timestamps and the stored JSON payload's size.
func (r *Repository) GetMetadata(ctx context.Context, name string) (model.WorkflowMetadata, error) {
	var createdAt, modifiedAt time.Time
	var actionsJSON string
	err := r.db.QueryRowContext(ctx,
		`SELECT actions_json, created_at, modified_at FROM workflows WHERE name = ?`, name,
	).Scan(&actionsJSON, &createdAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return model.WorkflowMetadata{}, errs.ErrNotFound
	}
	if err != nil {
		return model.WorkflowMetadata{}, &errs.RepositoryError{Op: "get metadata", Cause: err}
	}
	return model.WorkflowMetadata{CreatedAt: createdAt, ModifiedAt: modifiedAt, Size: len(actionsJSON)}, nil
}
