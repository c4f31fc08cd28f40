package action

import (
	"strings"

	"dev/bravebird/workflow-engine/pkg/errs"
)

// Conditional evaluates Condition once and executes TrueBranch or
// FalseBranch as a sub-block against the same context. Either branch
// may be empty, which succeeds trivially.
type Conditional struct {
	base
	Condition   Condition
	TrueBranch  []Action
	FalseBranch []Action
}

func (a *Conditional) Type() string { return "Conditional" }

func (a *Conditional) Validate() error {
	if err := validateCondition(a.Condition); err != nil {
		return err
	}
	if err := validateList(a.TrueBranch); err != nil {
		return err
	}
	return validateList(a.FalseBranch)
}

func (a *Conditional) Serialize() map[string]any {
	m := map[string]any{"type": a.Type(), "name": a.name}
	serializeCondition(a.Condition, m)
	m["true_branch"] = serializeList(a.TrueBranch)
	m["false_branch"] = serializeList(a.FalseBranch)
	return m
}

func (a *Conditional) Clone() Action {
	c := *a
	c.TrueBranch = cloneList(a.TrueBranch)
	c.FalseBranch = cloneList(a.FalseBranch)
	return &c
}

func (a *Conditional) Children() []List {
	return []List{
		{Field: "true_branch", Actions: a.TrueBranch},
		{Field: "false_branch", Actions: a.FalseBranch},
	}
}

// LoopType discriminates Loop's iteration strategy.
type LoopType string

const (
	LoopCount   LoopType = "count"
	LoopForEach LoopType = "for_each"
	LoopWhile   LoopType = "while"
)

// Loop bounds iteration by a fixed count, by walking a context
// variable, or by re-evaluating a Condition before each pass. While
// loops are capped by the interpreter's MaxWhileIterations (default
// 1000) to prevent runaway loops; Loop itself carries no cap.
type Loop struct {
	base
	LoopType         LoopType
	Count            int
	ListVariableName string
	Condition        Condition
	LoopActions      []Action
}

func (a *Loop) Type() string { return "Loop" }

func (a *Loop) Validate() error {
	switch a.LoopType {
	case LoopCount:
		if a.Count <= 0 {
			return &errs.ValidationError{Field: "count", Message: "must be an integer > 0"}
		}
	case LoopForEach:
		if strings.TrimSpace(a.ListVariableName) == "" {
			return &errs.ValidationError{Field: "list_variable_name", Message: "must not be empty"}
		}
	case LoopWhile:
		if err := validateCondition(a.Condition); err != nil {
			return err
		}
	default:
		return &errs.ValidationError{Field: "loop_type", Message: "unknown loop type " + string(a.LoopType)}
	}
	return validateList(a.LoopActions)
}

func (a *Loop) Serialize() map[string]any {
	m := map[string]any{
		"type":      a.Type(),
		"name":      a.name,
		"loop_type": string(a.LoopType),
	}
	switch a.LoopType {
	case LoopCount:
		m["count"] = a.Count
	case LoopForEach:
		m["list_variable_name"] = a.ListVariableName
	case LoopWhile:
		serializeCondition(a.Condition, m)
	}
	m["loop_actions"] = serializeList(a.LoopActions)
	return m
}

func (a *Loop) Clone() Action {
	c := *a
	c.LoopActions = cloneList(a.LoopActions)
	return &c
}

func (a *Loop) Children() []List {
	return []List{{Field: "loop_actions", Actions: a.LoopActions}}
}

// ErrorHandling runs TryActions; on failure it pushes an error frame and
// runs CatchActions. An empty CatchActions lets the original error
// propagate.
type ErrorHandling struct {
	base
	TryActions   []Action
	CatchActions []Action
}

func (a *ErrorHandling) Type() string { return "ErrorHandling" }

func (a *ErrorHandling) Validate() error {
	if err := validateList(a.TryActions); err != nil {
		return err
	}
	return validateList(a.CatchActions)
}

func (a *ErrorHandling) Serialize() map[string]any {
	return map[string]any{
		"type":          a.Type(),
		"name":          a.name,
		"try_actions":   serializeList(a.TryActions),
		"catch_actions": serializeList(a.CatchActions),
	}
}

func (a *ErrorHandling) Clone() Action {
	c := *a
	c.TryActions = cloneList(a.TryActions)
	c.CatchActions = cloneList(a.CatchActions)
	return &c
}

func (a *ErrorHandling) Children() []List {
	return []List{
		{Field: "try_actions", Actions: a.TryActions},
		{Field: "catch_actions", Actions: a.CatchActions},
	}
}
