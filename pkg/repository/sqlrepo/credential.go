package sqlrepo

import (
	"context"
	"database/sql"

	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

func (r *Repository) Credentials() repository.CredentialRepo { return r }

// Save upserts a credential row.
func (r *Repository) Save(ctx context.Context, cred model.Credential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (name, username, password_hash)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE username = VALUES(username), password_hash = VALUES(password_hash)
	`, cred.Name, cred.Username, cred.PasswordHash)
	if err != nil {
		return &errs.RepositoryError{Op: "save credential", Cause: err}
	}
	return nil
}

// GetByName looks up a credential, returning ok=false (no error) when
// absent.
func (r *Repository) GetByName(ctx context.Context, name string) (model.Credential, bool, error) {
	var cred model.Credential
	cred.Name = name
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password_hash FROM credentials WHERE name = ?`, name,
	).Scan(&cred.Username, &cred.PasswordHash)
	if err == sql.ErrNoRows {
		return model.Credential{}, false, nil
	}
	if err != nil {
		return model.Credential{}, false, &errs.RepositoryError{Op: "get credential", Cause: err}
	}
	return cred, true, nil
}

// Delete removes a credential by name.
func (r *Repository) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE name = ?`, name)
	if err != nil {
		return false, &errs.RepositoryError{Op: "delete credential", Cause: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns every credential name.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM credentials ORDER BY name`)
	if err != nil {
		return nil, &errs.RepositoryError{Op: "list credentials", Cause: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &errs.RepositoryError{Op: "list credentials", Cause: err}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
