// Package repository defines the four persistence contracts the engine
// depends on (workflows, templates, credentials, execution logs) and is
// implemented by the filerepo and sqlrepo backends, which must behave
// identically (Liskov substitution): both distinguish "not found"
// (a false/nil return, or errs.ErrNotFound from Load, LoadTemplate and
// GetMetadata) from I/O or parse failures (an *errs.RepositoryError or
// *errs.SerializationError).
package repository

import (
	"context"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/model"
)

// WorkflowRepo persists named action lists.
type WorkflowRepo interface {
	Create(ctx context.Context, name string) error
	Save(ctx context.Context, name string, actions []action.Action) error
	Load(ctx context.Context, name string) ([]action.Action, error)
	Delete(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
	GetMetadata(ctx context.Context, name string) (model.WorkflowMetadata, error)
}

// TemplateRepo persists named, serialized action lists expanded lazily
// by the interpreter.
type TemplateRepo interface {
	SaveTemplate(ctx context.Context, name string, actionsData []any) error
	LoadTemplate(ctx context.Context, name string) ([]any, error)
	DeleteTemplate(ctx context.Context, name string) (bool, error)
	ListTemplates(ctx context.Context) ([]string, error)
}

// CredentialRepo persists hashed credentials.
type CredentialRepo interface {
	Save(ctx context.Context, cred model.Credential) error
	GetByName(ctx context.Context, name string) (model.Credential, bool, error)
	Delete(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// ExecutionLogRepo persists append-only execution logs.
type ExecutionLogRepo interface {
	SaveLog(ctx context.Context, log model.ExecutionLog) error
	GetLog(ctx context.Context, id string) (model.ExecutionLog, bool, error)
	ListSummaries(ctx context.Context, workflowName string, limit int) ([]model.LogSummary, error)
}

// Repository bundles the four sub-repositories behind one handle, as a
// convenience for callers (WorkflowService, Scheduler, httpapi) that
// need all four; backends return one value implementing all four
// interfaces so they may share a connection/root directory.
type Repository interface {
	Workflows() WorkflowRepo
	Templates() TemplateRepo
	Credentials() CredentialRepo
	ExecutionLogs() ExecutionLogRepo
	Close() error
}
