package action

import (
	"fmt"
	"strings"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// Factory builds Actions from decoded JSON/map data. Unknown types fail
// with a *errs.ValidationError carrying the offending type and name.
// Nested action lists are created recursively depth-first; a failure at
// any depth propagates up annotated with its path ("field[index]").
type Factory struct{}

// NewFactory returns a ready-to-use Factory. It has no state today, but
// is a struct (not a package-level function) so a future registry of
// custom action types has somewhere to live without breaking callers.
func NewFactory() *Factory { return &Factory{} }

// Create builds a single Action from data, validating it before return.
func (f *Factory) Create(data map[string]any) (Action, error) {
	a, err := f.build(data, "")
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateList builds and validates every element of data in order.
func (f *Factory) CreateList(data []any) ([]Action, error) {
	return f.buildList(data, "")
}

func (f *Factory) build(data map[string]any, path string) (Action, error) {
	typ, _ := data["type"].(string)
	name, _ := data["name"].(string)
	name = strings.TrimSpace(name)

	switch typ {
	case "Navigate":
		return &Navigate{base: base{name: name}, URL: str(data["url"])}, nil

	case "Click":
		return &Click{base: base{name: name}, Selector: str(data["selector"])}, nil

	case "Type":
		return &Type{
			base:      base{name: name},
			Selector:  str(data["selector"]),
			ValueType: ValueType(str(data["value_type"])),
			ValueKey:  str(data["value_key"]),
		}, nil

	case "Wait":
		return &Wait{base: base{name: name}, DurationSeconds: num(data["duration_seconds"])}, nil

	case "Screenshot":
		return &Screenshot{base: base{name: name}, FilePath: str(data["file_path"])}, nil

	case "Template":
		return &Template{base: base{name: name}, TemplateName: str(data["template_name"])}, nil

	case "Conditional":
		trueBranch, err := f.buildListField(data, "true_branch", path)
		if err != nil {
			return nil, err
		}
		falseBranch, err := f.buildListField(data, "false_branch", path)
		if err != nil {
			return nil, err
		}
		return &Conditional{
			base:        base{name: name},
			Condition:   buildCondition(data),
			TrueBranch:  trueBranch,
			FalseBranch: falseBranch,
		}, nil

	case "Loop":
		loopActions, err := f.buildListField(data, "loop_actions", path)
		if err != nil {
			return nil, err
		}
		count := 0
		if v, ok := data["count"]; ok {
			count = int(num(v))
		}
		return &Loop{
			base:             base{name: name},
			LoopType:         LoopType(str(data["loop_type"])),
			Count:            count,
			ListVariableName: str(data["list_variable_name"]),
			Condition:        buildCondition(data),
			LoopActions:      loopActions,
		}, nil

	case "ErrorHandling":
		tryActions, err := f.buildListField(data, "try_actions", path)
		if err != nil {
			return nil, err
		}
		catchActions, err := f.buildListField(data, "catch_actions", path)
		if err != nil {
			return nil, err
		}
		return &ErrorHandling{
			base:         base{name: name},
			TryActions:   tryActions,
			CatchActions: catchActions,
		}, nil

	default:
		return nil, &errs.ValidationError{
			Field:   joinPath(path, "type"),
			Message: fmt.Sprintf("unknown action type %q (name=%q)", typ, name),
		}
	}
}

func (f *Factory) buildListField(data map[string]any, field, path string) ([]Action, error) {
	raw, _ := data[field].([]any)
	return f.buildList(raw, joinPath(path, field))
}

func (f *Factory) buildList(raw []any, path string) ([]Action, error) {
	out := make([]Action, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &errs.ValidationError{
				Field:   fmt.Sprintf("%s[%d]", path, i),
				Message: "expected an action object",
			}
		}
		a, err := f.build(m, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := a.Validate(); err != nil {
			return nil, annotate(err, fmt.Sprintf("%s[%d]", path, i))
		}
		out = append(out, a)
	}
	return out, nil
}

func buildCondition(data map[string]any) Condition {
	c := Condition{
		ConditionType: ConditionType(str(data["condition_type"])),
		Selector:      str(data["selector"]),
		VariableName:  str(data["variable_name"]),
		Script:        str(data["script"]),
	}
	if v, ok := data["expected_value"]; ok {
		c.ExpectedValue = v
		c.HasExpected = true
	}
	return c
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func annotate(err error, path string) error {
	if ve, ok := err.(*errs.ValidationError); ok {
		return &errs.ValidationError{Field: joinPath(path, ve.Field), Message: ve.Message}
	}
	return err
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
