package filerepo

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/model"
)

type workflowFile struct {
	Name       string `json:"name"`
	Actions    []any  `json:"actions"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

// Create fails if a workflow named name already exists.
func (r *Repository) Create(ctx context.Context, name string) error {
	path := r.workflowPath(name)
	return withLock(path, func() error {
		if _, err := os.Stat(path); err == nil {
			return errs.ErrAlreadyExists
		}
		now := time.Now().UTC()
		return writeWorkflowFile(path, workflowFile{
			Name:       name,
			Actions:    []any{},
			CreatedAt:  now.Format(time.RFC3339),
			ModifiedAt: now.Format(time.RFC3339),
		})
	})
}

// Save upserts the workflow's action list.
func (r *Repository) Save(ctx context.Context, name string, actions []action.Action) error {
	path := r.workflowPath(name)
	return withLock(path, func() error {
		createdAt := time.Now().UTC()
		if existing, err := readWorkflowFile(path); err == nil {
			if t, perr := time.Parse(time.RFC3339, existing.CreatedAt); perr == nil {
				createdAt = t
			}
		}
		serialized := make([]any, len(actions))
		for i, a := range actions {
			serialized[i] = a.Serialize()
		}
		return writeWorkflowFile(path, workflowFile{
			Name:       name,
			Actions:    serialized,
			CreatedAt:  createdAt.Format(time.RFC3339),
			ModifiedAt: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

// Load reads and reconstructs the workflow's action list.
func (r *Repository) Load(ctx context.Context, name string) ([]action.Action, error) {
	wf, err := readWorkflowFile(r.workflowPath(name))
	if err != nil {
		return nil, err
	}
	return r.factory.CreateList(wf.Actions)
}

// Delete removes the workflow's file, reporting false (no error) when
// it did not exist.
func (r *Repository) Delete(ctx context.Context, name string) (bool, error) {
	path := r.workflowPath(name)
	var existed bool
	err := withLock(path, func() error {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return &errs.RepositoryError{Op: "delete", Cause: err}
		}
		existed = true
		return nil
	})
	return existed, err
}

// List returns every workflow name under the workflows directory.
func (r *Repository) List(ctx context.Context) ([]string, error) {
	return listJSONNames(r.workflowsDir)
}

// GetMetadata returns the workflow's timestamps and file size.
func (r *Repository) GetMetadata(ctx context.Context, name string) (model.WorkflowMetadata, error) {
	path := r.workflowPath(name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.WorkflowMetadata{}, errs.ErrNotFound
		}
		return model.WorkflowMetadata{}, &errs.RepositoryError{Op: "stat", Cause: err}
	}
	wf, err := readWorkflowFile(path)
	if err != nil {
		return model.WorkflowMetadata{}, err
	}
	created, _ := time.Parse(time.RFC3339, wf.CreatedAt)
	modified, _ := time.Parse(time.RFC3339, wf.ModifiedAt)
	return model.WorkflowMetadata{CreatedAt: created, ModifiedAt: modified, Size: int(info.Size())}, nil
}

func writeWorkflowFile(path string, wf workflowFile) error {
	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return &errs.SerializationError{Op: "marshal workflow", Cause: err}
	}
	return atomicWrite(path, data, 0o644)
}

func readWorkflowFile(path string) (workflowFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return workflowFile{}, errs.ErrNotFound
		}
		return workflowFile{}, &errs.RepositoryError{Op: "read", Cause: err}
	}
	var wf workflowFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return workflowFile{}, &errs.SerializationError{Op: "unmarshal workflow", Cause: err}
	}
	return wf, nil
}

func listJSONNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.RepositoryError{Op: "list", Cause: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
