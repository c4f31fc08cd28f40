package sqlrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/repository"
)

func (r *Repository) Templates() repository.TemplateRepo { return r }

// SaveTemplate upserts a template's serialized action list, preserving
// the original created_at on update.
func (r *Repository) SaveTemplate(ctx context.Context, name string, actionsData []any) error {
	data, err := json.Marshal(actionsData)
	if err != nil {
		return &errs.SerializationError{Op: "marshal template", Cause: err}
	}
	var createdAt time.Time
	err = r.db.QueryRowContext(ctx, `SELECT created_at FROM templates WHERE name = ?`, name).Scan(&createdAt)
	if err == sql.ErrNoRows {
		createdAt = time.Now().UTC()
	} else if err != nil {
		return &errs.RepositoryError{Op: "save template", Cause: err}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates (name, actions_json, created_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE actions_json = VALUES(actions_json)
	`, name, string(data), createdAt)
	if err != nil {
		return &errs.RepositoryError{Op: "save template", Cause: err}
	}
	return nil
}

// LoadTemplate returns a template's serialized action list.
func (r *Repository) LoadTemplate(ctx context.Context, name string) ([]any, error) {
	var actionsJSON string
	err := r.db.QueryRowContext(ctx, `SELECT actions_json FROM templates WHERE name = ?`, name).Scan(&actionsJSON)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, &errs.RepositoryError{Op: "load template", Cause: err}
	}
	var raw []any
	if err := json.Unmarshal([]byte(actionsJSON), &raw); err != nil {
		return nil, &errs.SerializationError{Op: "unmarshal template", Cause: err}
	}
	return raw, nil
}

// DeleteTemplate removes a template row.
func (r *Repository) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		return false, &errs.RepositoryError{Op: "delete template", Cause: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListTemplates returns every template name.
func (r *Repository) ListTemplates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, &errs.RepositoryError{Op: "list templates", Cause: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &errs.RepositoryError{Op: "list templates", Cause: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
