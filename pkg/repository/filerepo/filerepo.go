// Package filerepo implements repository.Repository over the local
// filesystem: one JSON file per workflow/template, a single JSON array
// file for credentials, and timestamped JSON files under logs/. Writes
// are atomic (write-to-temp + rename) and serialized per key with a
// cross-process advisory file lock (github.com/nightlyone/lockfile),
// matching SPEC_FULL.md §4.4's file backend.
package filerepo

import (
	"os"
	"path/filepath"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/repository"
)

// Repository is a filesystem-backed repository.Repository. It
// implements all four sub-repository interfaces itself, since every
// one of them shares the same root directory and lock discipline.
type Repository struct {
	workflowsDir    string
	templatesDir    string
	credentialsDir  string
	credentialsFile string
	logsDir         string
	factory         *action.Factory
}

// Options configures the paths a Repository reads and writes.
type Options struct {
	// WorkflowsPath is the directory holding one JSON file per
	// workflow, and (as a "templates" subdirectory) one per template.
	WorkflowsPath string
	// CredentialsPath is the JSON array file holding all credentials.
	CredentialsPath string
	// CreateIfMissing creates WorkflowsPath, its templates/logs
	// subdirectories, and CredentialsPath's parent directory if absent.
	CreateIfMissing bool
}

// New returns a Repository rooted at opts.WorkflowsPath /
// opts.CredentialsPath, creating directories when opts.CreateIfMissing.
func New(opts Options) (*Repository, error) {
	r := &Repository{
		workflowsDir:    opts.WorkflowsPath,
		templatesDir:    filepath.Join(opts.WorkflowsPath, "templates"),
		credentialsDir:  filepath.Dir(opts.CredentialsPath),
		credentialsFile: opts.CredentialsPath,
		logsDir:         filepath.Join(opts.WorkflowsPath, "logs"),
		factory:         action.NewFactory(),
	}
	if opts.CreateIfMissing {
		for _, dir := range []string{r.workflowsDir, r.templatesDir, r.credentialsDir, r.logsDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &errs.RepositoryError{Op: "mkdir", Cause: err}
			}
		}
	}
	return r, nil
}

// Workflows returns the WorkflowRepo view of this Repository.
func (r *Repository) Workflows() repository.WorkflowRepo { return r }

// Templates returns the TemplateRepo view of this Repository.
func (r *Repository) Templates() repository.TemplateRepo { return r }

// Credentials returns the CredentialRepo view of this Repository.
func (r *Repository) Credentials() repository.CredentialRepo { return r }

// ExecutionLogs returns the ExecutionLogRepo view of this Repository.
func (r *Repository) ExecutionLogs() repository.ExecutionLogRepo { return r }

// Close is a no-op for the file backend; no connection to release.
func (r *Repository) Close() error { return nil }

func (r *Repository) workflowPath(name string) string {
	return filepath.Join(r.workflowsDir, name+".json")
}

func (r *Repository) templatePath(name string) string {
	return filepath.Join(r.templatesDir, name+".json")
}
