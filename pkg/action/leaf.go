package action

import (
	"math"
	"strings"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// Navigate loads url in the current page.
type Navigate struct {
	base
	URL string
}

func (a *Navigate) Type() string { return "Navigate" }

func (a *Navigate) Validate() error {
	if strings.TrimSpace(a.URL) == "" {
		return &errs.ValidationError{Field: "url", Message: "must not be empty"}
	}
	return nil
}

func (a *Navigate) Serialize() map[string]any {
	return map[string]any{"type": a.Type(), "name": a.name, "url": a.URL}
}

func (a *Navigate) Clone() Action {
	c := *a
	return &c
}

// Click clicks the element matched by selector.
type Click struct {
	base
	Selector string
}

func (a *Click) Type() string { return "Click" }

func (a *Click) Validate() error {
	if strings.TrimSpace(a.Selector) == "" {
		return &errs.ValidationError{Field: "selector", Message: "must not be empty"}
	}
	return nil
}

func (a *Click) Serialize() map[string]any {
	return map[string]any{"type": a.Type(), "name": a.name, "selector": a.Selector}
}

func (a *Click) Clone() Action {
	c := *a
	return &c
}

// ValueType discriminates where Type's value comes from.
type ValueType string

const (
	ValueText       ValueType = "text"
	ValueCredential ValueType = "credential"
)

// Type types a value into the element matched by selector. When
// ValueType is ValueCredential, ValueKey is "credName.(username|password)"
// and is resolved through a CredentialStore at execution time.
type Type struct {
	base
	Selector  string
	ValueType ValueType
	ValueKey  string
}

func (a *Type) Type() string { return "Type" }

func (a *Type) Validate() error {
	if strings.TrimSpace(a.Selector) == "" {
		return &errs.ValidationError{Field: "selector", Message: "must not be empty"}
	}
	switch a.ValueType {
	case ValueText, ValueCredential:
	default:
		return &errs.ValidationError{Field: "value_type", Message: "must be text or credential"}
	}
	if strings.TrimSpace(a.ValueKey) == "" {
		return &errs.ValidationError{Field: "value_key", Message: "must not be empty"}
	}
	if a.ValueType == ValueCredential {
		name, field, ok := SplitCredentialKey(a.ValueKey)
		if !ok || name == "" || (field != "username" && field != "password") {
			return &errs.ValidationError{Field: "value_key", Message: "credential value_key must be 'name.(username|password)'"}
		}
	}
	return nil
}

// SplitCredentialKey splits "credName.field" into its two parts.
func SplitCredentialKey(key string) (name, field string, ok bool) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

func (a *Type) Serialize() map[string]any {
	return map[string]any{
		"type":       a.Type(),
		"name":       a.name,
		"selector":   a.Selector,
		"value_type": string(a.ValueType),
		"value_key":  a.ValueKey,
	}
}

func (a *Type) Clone() Action {
	c := *a
	return &c
}

// Wait sleeps for DurationSeconds, polling the cancel signal at
// sub-second granularity so cancellation can interrupt the sleep.
type Wait struct {
	base
	DurationSeconds float64
}

func (a *Wait) Type() string { return "Wait" }

func (a *Wait) Validate() error {
	if !(a.DurationSeconds > 0) || math.IsInf(a.DurationSeconds, 1) {
		return &errs.ValidationError{Field: "duration_seconds", Message: "must be a finite number > 0"}
	}
	return nil
}

func (a *Wait) Serialize() map[string]any {
	return map[string]any{"type": a.Type(), "name": a.name, "duration_seconds": a.DurationSeconds}
}

func (a *Wait) Clone() Action {
	c := *a
	return &c
}

// Screenshot saves a PNG of the current page to FilePath.
type Screenshot struct {
	base
	FilePath string
}

func (a *Screenshot) Type() string { return "Screenshot" }

func (a *Screenshot) Validate() error {
	if strings.TrimSpace(a.FilePath) == "" {
		return &errs.ValidationError{Field: "file_path", Message: "must not be empty"}
	}
	return nil
}

func (a *Screenshot) Serialize() map[string]any {
	return map[string]any{"type": a.Type(), "name": a.name, "file_path": a.FilePath}
}

func (a *Screenshot) Clone() Action {
	c := *a
	return &c
}

// Template references a saved template, expanded in place by the
// interpreter at execution time.
type Template struct {
	base
	TemplateName string
}

func (a *Template) Type() string { return "Template" }

func (a *Template) Validate() error {
	if strings.TrimSpace(a.TemplateName) == "" {
		return &errs.ValidationError{Field: "template_name", Message: "must not be empty"}
	}
	return nil
}

func (a *Template) Serialize() map[string]any {
	return map[string]any{"type": a.Type(), "name": a.name, "template_name": a.TemplateName}
}

func (a *Template) Clone() Action {
	c := *a
	return &c
}
