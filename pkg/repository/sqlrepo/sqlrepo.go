// Package sqlrepo implements repository.Repository over a SQL database,
// grounded in the teacher's pkg/database/mysql.go: one table per entity
// type, payload stored as JSON text, ON DUPLICATE KEY UPDATE upsert
// semantics. Uses database/sql with github.com/go-sql-driver/mysql.
package sqlrepo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/errs"
)

// Schema is the DDL SPEC_FULL.md §6 documents. EnsureSchema runs it
// (CREATE TABLE IF NOT EXISTS only); Repository runs no other
// migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS workflows (
	name VARCHAR(255) PRIMARY KEY,
	actions_json MEDIUMTEXT NOT NULL,
	created_at DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS templates (
	name VARCHAR(255) PRIMARY KEY,
	actions_json MEDIUMTEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS credentials (
	name VARCHAR(255) PRIMARY KEY,
	username VARCHAR(255) NOT NULL,
	password_hash VARCHAR(512) NOT NULL
);
CREATE TABLE IF NOT EXISTS execution_logs (
	id VARCHAR(64) PRIMARY KEY,
	workflow_name VARCHAR(255) NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	duration_seconds DOUBLE NOT NULL,
	final_status VARCHAR(16) NOT NULL,
	payload_json MEDIUMTEXT NOT NULL
);
`

// Repository is a SQL-backed repository.Repository.
type Repository struct {
	db      *sql.DB
	factory *action.Factory
}

// New opens dsn (a go-sql-driver/mysql data source name) and verifies
// connectivity.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &errs.RepositoryError{Op: "open", Cause: err}
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, &errs.RepositoryError{Op: "ping", Cause: err}
	}
	return &Repository{db: db, factory: action.NewFactory()}, nil
}

// EnsureSchema runs the CREATE TABLE IF NOT EXISTS statements.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range splitStatements(Schema) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return &errs.RepositoryError{Op: "ensure schema", Cause: err}
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (r *Repository) Close() error { return r.db.Close() }
