package filerepo

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"dev/bravebird/workflow-engine/pkg/errs"
)

type templateFile struct {
	Name       string `json:"name"`
	ActionsRaw []any  `json:"actions_data"`
	CreatedAt  string `json:"created_at"`
}

// SaveTemplate upserts a template's serialized action list.
func (r *Repository) SaveTemplate(ctx context.Context, name string, actionsData []any) error {
	path := r.templatePath(name)
	return withLock(path, func() error {
		createdAt := time.Now().UTC()
		if existing, err := readTemplateFile(path); err == nil {
			if t, perr := time.Parse(time.RFC3339, existing.CreatedAt); perr == nil {
				createdAt = t
			}
		}
		data, err := json.MarshalIndent(templateFile{
			Name:       name,
			ActionsRaw: actionsData,
			CreatedAt:  createdAt.Format(time.RFC3339),
		}, "", "  ")
		if err != nil {
			return &errs.SerializationError{Op: "marshal template", Cause: err}
		}
		return atomicWrite(path, data, 0o644)
	})
}

// LoadTemplate returns a template's serialized action list.
func (r *Repository) LoadTemplate(ctx context.Context, name string) ([]any, error) {
	tf, err := readTemplateFile(r.templatePath(name))
	if err != nil {
		return nil, err
	}
	return tf.ActionsRaw, nil
}

// DeleteTemplate removes a template's file.
func (r *Repository) DeleteTemplate(ctx context.Context, name string) (bool, error) {
	path := r.templatePath(name)
	var existed bool
	err := withLock(path, func() error {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return &errs.RepositoryError{Op: "delete template", Cause: err}
		}
		existed = true
		return nil
	})
	return existed, err
}

// ListTemplates returns every template name.
func (r *Repository) ListTemplates(ctx context.Context) ([]string, error) {
	return listJSONNames(r.templatesDir)
}

func readTemplateFile(path string) (templateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return templateFile{}, errs.ErrNotFound
		}
		return templateFile{}, &errs.RepositoryError{Op: "read template", Cause: err}
	}
	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return templateFile{}, &errs.SerializationError{Op: "unmarshal template", Cause: err}
	}
	return tf, nil
}
