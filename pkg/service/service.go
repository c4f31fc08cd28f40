// Package service implements WorkflowService, the orchestration entry
// point that loads a workflow, acquires a driver, runs the interpreter,
// and persists the resulting log. See SPEC_FULL.md §4.7.
package service

import (
	"context"
	"fmt"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/credential"
	"dev/bravebird/workflow-engine/pkg/driver"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/interpreter"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

// WorkflowService is the orchestration entry point used by httpapi, the
// Scheduler, and the distributed Temporal activity alike.
type WorkflowService struct {
	repo          repository.Repository
	credStore     *credential.Store
	driverFactory driver.Factory
	factory       *action.Factory
}

// New constructs a WorkflowService over repo, using credStore to
// resolve credential-typed actions and driverFactory to acquire a
// BrowserDriver per run.
func New(repo repository.Repository, credStore *credential.Store, driverFactory driver.Factory) *WorkflowService {
	return &WorkflowService{repo: repo, credStore: credStore, driverFactory: driverFactory, factory: action.NewFactory()}
}

// Run loads workflow name, executes it against a freshly acquired
// browserType driver, and persists the resulting log before returning
// it. credentialName, when non-empty, is validated to exist and seeded
// into the run's context as "credential_name" (see DESIGN.md); it
// is not itself used to resolve Type[credential] actions, which name
// their own credential explicitly.
func (s *WorkflowService) Run(ctx context.Context, name, credentialName, browserType string, cancel interpreter.Cancel, progress chan<- model.ActionResult) (model.ExecutionLog, error) {
	if credentialName != "" {
		ok, err := s.credStore.Exists(ctx, credentialName)
		if err != nil {
			return model.ExecutionLog{}, err
		}
		if !ok {
			return model.ExecutionLog{}, &errs.CredentialError{Name: credentialName, Message: "credential not found"}
		}
	}

	actions, err := s.repo.Workflows().Load(ctx, name)
	if err != nil {
		return model.ExecutionLog{}, err
	}

	drv, err := s.driverFactory.NewDriver(browserType)
	if err != nil {
		return model.ExecutionLog{}, &errs.DriverError{Op: "acquire driver", Cause: err, Message: fmt.Sprintf("unsupported browser type %q", browserType)}
	}
	defer drv.Quit() // idempotent per the BrowserDriver contract

	interp := interpreter.New(drv, s.credStore, s.repo.Templates(), cancel)
	interp.Progress = progress
	interp.CredentialName = credentialName

	log := interp.Run(actions, name)

	if err := s.repo.ExecutionLogs().SaveLog(ctx, log); err != nil {
		return log, err
	}
	return log, nil
}

// CreateWorkflow registers an empty workflow named name.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, name string) error {
	if !model.ValidName(name) {
		return &errs.ValidationError{Field: "name", Message: "must be a non-empty, filesystem-safe identifier"}
	}
	return s.repo.Workflows().Create(ctx, name)
}

// SaveWorkflow validates and persists a workflow's action list, failing
// fast (no partial writes) when any action is invalid.
func (s *WorkflowService) SaveWorkflow(ctx context.Context, name string, actionsData []any) error {
	if !model.ValidName(name) {
		return &errs.ValidationError{Field: "name", Message: "must be a non-empty, filesystem-safe identifier"}
	}
	actions, err := s.factory.CreateList(actionsData)
	if err != nil {
		return err
	}
	return s.repo.Workflows().Save(ctx, name, actions)
}

// LoadWorkflow returns a workflow's action list.
func (s *WorkflowService) LoadWorkflow(ctx context.Context, name string) ([]action.Action, error) {
	return s.repo.Workflows().Load(ctx, name)
}

// DeleteWorkflow removes a workflow by name.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, name string) (bool, error) {
	return s.repo.Workflows().Delete(ctx, name)
}

// ListWorkflows returns every workflow name.
func (s *WorkflowService) ListWorkflows(ctx context.Context) ([]string, error) {
	return s.repo.Workflows().List(ctx)
}

// SaveTemplate validates and persists a template's serialized action
// list (validated, but stored in serialized form per spec.md §4.4).
func (s *WorkflowService) SaveTemplate(ctx context.Context, name string, actionsData []any) error {
	if !model.ValidName(name) {
		return &errs.ValidationError{Field: "name", Message: "must be a non-empty, filesystem-safe identifier"}
	}
	if _, err := s.factory.CreateList(actionsData); err != nil {
		return err
	}
	return s.repo.Templates().SaveTemplate(ctx, name, actionsData)
}

// DeleteTemplate removes a template by name.
func (s *WorkflowService) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	return s.repo.Templates().DeleteTemplate(ctx, name)
}

// ListTemplates returns every template name.
func (s *WorkflowService) ListTemplates(ctx context.Context) ([]string, error) {
	return s.repo.Templates().ListTemplates(ctx)
}

// CreateCredential hashes plaintext and stores a new named credential.
func (s *WorkflowService) CreateCredential(ctx context.Context, name, username, plaintext string) error {
	if !model.ValidName(name) {
		return &errs.ValidationError{Field: "name", Message: "must be a non-empty, filesystem-safe identifier"}
	}
	return s.credStore.Create(ctx, name, username, plaintext)
}

// DeleteCredential removes a credential by name.
func (s *WorkflowService) DeleteCredential(ctx context.Context, name string) (bool, error) {
	return s.repo.Credentials().Delete(ctx, name)
}

// ListCredentials returns every credential name.
func (s *WorkflowService) ListCredentials(ctx context.Context) ([]string, error) {
	return s.repo.Credentials().List(ctx)
}

// GetLog returns a single execution log by id.
func (s *WorkflowService) GetLog(ctx context.Context, id string) (model.ExecutionLog, bool, error) {
	return s.repo.ExecutionLogs().GetLog(ctx, id)
}

// ListLogSummaries returns log summaries, optionally filtered to a
// single workflow, newest-first.
func (s *WorkflowService) ListLogSummaries(ctx context.Context, workflowName string, limit int) ([]model.LogSummary, error) {
	return s.repo.ExecutionLogs().ListSummaries(ctx, workflowName, limit)
}
