// Package interpreter implements the sequential execution engine that
// runs a workflow's action list against a BrowserDriver, producing an
// ExecutionLog. See SPEC_FULL.md §4.6.
package interpreter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/credential"
	"dev/bravebird/workflow-engine/pkg/driver"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/execctx"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository"
)

// DefaultMaxWhileIterations is the hard cap on while-loop iterations
// applied when Interpreter.MaxWhileIterations is left at zero.
const DefaultMaxWhileIterations = 1000

const waitPollInterval = 200 * time.Millisecond

// Cancel is polled at every step described in spec.md §4.6: before each
// action, before each loop iteration, before each condition evaluation.
type Cancel func() bool

// Interpreter executes a single workflow run. One instance is owned by
// exactly one run; it is not safe for concurrent use.
type Interpreter struct {
	driver     driver.BrowserDriver
	credStore  *credential.Store
	templates  repository.TemplateRepo
	factory    *action.Factory
	cancel     Cancel
	ctx        execContext

	// MaxWhileIterations overrides DefaultMaxWhileIterations when > 0.
	MaxWhileIterations int
	// Progress receives a copy of every leaf ActionResult as it is
	// produced, matching SPEC_FULL.md §4.7's non-blocking progress
	// channel. Nil disables progress reporting.
	Progress chan<- model.ActionResult

	// CredentialName, when set, names the credential this run was
	// invoked against (see DESIGN.md). It is seeded into the
	// root scope as "credential_name" so actions can reference it via
	// "${credential_name}" or a variable_equals condition; per-action
	// credential resolution still goes through Type[credential]'s own
	// explicit name, unaffected by this field.
	CredentialName string

	expanding map[string]struct{}
}

// execContext is the subset of *execctx.Context the interpreter touches,
// expressed as an interface so tests can swap it out if ever needed.
type execContext interface {
	Push(frame map[string]any)
	Pop()
	Lookup(key string) (any, bool)
	Set(key string, value any)
	Snapshot() map[string]any
}

// New constructs an Interpreter over drv, using credStore to resolve
// Type[credential] actions and templates to expand Template nodes.
// cancel is polled cooperatively throughout Run.
func New(drv driver.BrowserDriver, credStore *credential.Store, templates repository.TemplateRepo, cancel Cancel) *Interpreter {
	if cancel == nil {
		cancel = func() bool { return false }
	}
	return &Interpreter{
		driver:    drv,
		credStore: credStore,
		templates: templates,
		factory:   action.NewFactory(),
		cancel:    cancel,
		ctx:       execctx.New(),
		expanding: make(map[string]struct{}),
	}
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeStopped
	outcomeFailed
)

type blockOutcome struct {
	results []model.ActionResult
	kind    outcomeKind
	err     error
}

// Run executes actions in order, producing an ExecutionLog. It never
// returns an error to the caller: every failure is captured in the
// log's FinalStatus/ErrorMessage.
func (i *Interpreter) Run(actions []action.Action, workflowName string) model.ExecutionLog {
	if i.CredentialName != "" {
		i.ctx.Set("credential_name", i.CredentialName)
	}
	start := time.Now().UTC()
	outcome := i.runBlock(actions)
	end := time.Now().UTC()

	log := model.ExecutionLog{
		ID:              uuid.NewString(),
		WorkflowName:    workflowName,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end.Sub(start).Seconds(),
		ActionResults:   outcome.results,
	}
	switch outcome.kind {
	case outcomeOK:
		log.FinalStatus = model.StatusSuccess
	case outcomeStopped:
		log.FinalStatus = model.StatusStopped
	case outcomeFailed:
		log.FinalStatus = model.StatusFailed
		if outcome.err != nil {
			log.ErrorMessage = outcome.err.Error()
		}
	default:
		log.FinalStatus = model.StatusUnknown
	}
	return log
}

// runBlock executes actions sequentially against the interpreter's
// shared context, stopping at the first terminal (stopped/failed)
// outcome. Nested blocks (branches, loop bodies, try/catch) recurse
// through this same function so ordering and cancellation behave
// identically at every nesting depth.
func (i *Interpreter) runBlock(actions []action.Action) blockOutcome {
	var results []model.ActionResult
	for _, a := range actions {
		if i.cancel() {
			return blockOutcome{results: results, kind: outcomeStopped}
		}

		switch v := a.(type) {
		case *action.Template:
			expanded, err := i.expandTemplate(v.TemplateName)
			if err != nil {
				results = append(results, model.ActionResult{Status: model.ActionFailed, Message: err.Error()})
				return blockOutcome{results: results, kind: outcomeFailed, err: err}
			}
			sub := i.runBlock(expanded)
			delete(i.expanding, v.TemplateName)
			results = append(results, sub.results...)
			if sub.kind != outcomeOK {
				return blockOutcome{results: results, kind: sub.kind, err: sub.err}
			}

		case *action.Conditional:
			if i.cancel() {
				return blockOutcome{results: results, kind: outcomeStopped}
			}
			match, err := i.evalCondition(v.Condition)
			if err != nil {
				wrapped := &errs.ActionError{ActionName: v.Name(), ActionType: v.Type(), Cause: err}
				results = append(results, model.ActionResult{Status: model.ActionFailed, Message: wrapped.Error()})
				return blockOutcome{results: results, kind: outcomeFailed, err: wrapped}
			}
			branch := v.FalseBranch
			if match {
				branch = v.TrueBranch
			}
			sub := i.runBlock(branch)
			results = append(results, sub.results...)
			if sub.kind != outcomeOK {
				return blockOutcome{results: results, kind: sub.kind, err: sub.err}
			}

		case *action.Loop:
			sub := i.runLoop(v)
			results = append(results, sub.results...)
			if sub.kind != outcomeOK {
				return blockOutcome{results: results, kind: sub.kind, err: sub.err}
			}

		case *action.ErrorHandling:
			sub := i.runErrorHandling(v)
			results = append(results, sub.results...)
			if sub.kind != outcomeOK {
				return blockOutcome{results: results, kind: sub.kind, err: sub.err}
			}

		default:
			status, message, stopped, err := i.executeLeaf(a)
			results = append(results, model.ActionResult{Status: status, Message: message})
			i.reportProgress(status, message)
			if stopped {
				return blockOutcome{results: results, kind: outcomeStopped}
			}
			if err != nil {
				return blockOutcome{results: results, kind: outcomeFailed, err: err}
			}
		}
	}
	return blockOutcome{results: results, kind: outcomeOK}
}

func (i *Interpreter) reportProgress(status model.ActionResultStatus, message string) {
	if i.Progress == nil {
		return
	}
	select {
	case i.Progress <- model.ActionResult{Status: status, Message: message}:
	default:
	}
}

// expandTemplate loads and deserializes a template's actions, rejecting
// re-entrant expansion (a template that (transitively) references
// itself). On success name is marked in-flight; the caller clears the
// mark once the expanded block has run.
func (i *Interpreter) expandTemplate(name string) ([]action.Action, error) {
	if _, inFlight := i.expanding[name]; inFlight {
		return nil, &errs.WorkflowError{Workflow: name, Cause: fmt.Errorf("template cycle detected at %q", name)}
	}
	raw, err := i.templates.LoadTemplate(context.Background(), name)
	if err != nil {
		return nil, err
	}
	actions, err := i.factory.CreateList(raw)
	if err != nil {
		return nil, err
	}
	i.expanding[name] = struct{}{}
	return actions, nil
}

func (i *Interpreter) runLoop(l *action.Loop) blockOutcome {
	switch l.LoopType {
	case action.LoopCount:
		return i.runCountLoop(l)
	case action.LoopForEach:
		return i.runForEachLoop(l)
	case action.LoopWhile:
		return i.runWhileLoop(l)
	default:
		err := &errs.ActionError{ActionName: l.Name(), ActionType: l.Type(), Cause: fmt.Errorf("unknown loop type %q", l.LoopType)}
		return blockOutcome{kind: outcomeFailed, err: err}
	}
}

func (i *Interpreter) runCountLoop(l *action.Loop) blockOutcome {
	var results []model.ActionResult
	if l.Count > 0 && len(l.LoopActions) == 0 {
		log.Printf("loop %q: loop_actions is empty, %d iterations are no-ops", l.Name(), l.Count)
	}
	for idx := 0; idx < l.Count; idx++ {
		if i.cancel() {
			return blockOutcome{results: results, kind: outcomeStopped}
		}
		i.ctx.Push(map[string]any{"loop_index": idx, "loop_iteration": idx + 1, "loop_total": l.Count})
		sub := i.runBlock(l.LoopActions)
		i.ctx.Pop()
		results = append(results, sub.results...)
		if sub.kind != outcomeOK {
			return blockOutcome{results: results, kind: sub.kind, err: sub.err}
		}
	}
	return blockOutcome{results: results, kind: outcomeOK}
}

func (i *Interpreter) runForEachLoop(l *action.Loop) blockOutcome {
	val, ok := i.ctx.Lookup(l.ListVariableName)
	if !ok {
		err := &errs.ActionError{ActionName: l.Name(), ActionType: l.Type(), Cause: fmt.Errorf("list_variable_name %q is not set", l.ListVariableName)}
		return blockOutcome{kind: outcomeFailed, err: err}
	}
	items, ok := val.([]any)
	if !ok {
		err := &errs.ActionError{ActionName: l.Name(), ActionType: l.Type(), Cause: fmt.Errorf("list_variable_name %q is not a sequence", l.ListVariableName)}
		return blockOutcome{kind: outcomeFailed, err: err}
	}

	var results []model.ActionResult
	if len(items) > 0 && len(l.LoopActions) == 0 {
		log.Printf("loop %q: loop_actions is empty, %d iterations are no-ops", l.Name(), len(items))
	}
	for idx, item := range items {
		if i.cancel() {
			return blockOutcome{results: results, kind: outcomeStopped}
		}
		i.ctx.Push(map[string]any{
			"loop_index":     idx,
			"loop_iteration": idx + 1,
			"loop_total":     len(items),
			"loop_item":      item,
		})
		sub := i.runBlock(l.LoopActions)
		i.ctx.Pop()
		results = append(results, sub.results...)
		if sub.kind != outcomeOK {
			return blockOutcome{results: results, kind: sub.kind, err: sub.err}
		}
	}
	return blockOutcome{results: results, kind: outcomeOK}
}

func (i *Interpreter) runWhileLoop(l *action.Loop) blockOutcome {
	limit := i.MaxWhileIterations
	if limit <= 0 {
		limit = DefaultMaxWhileIterations
	}

	var results []model.ActionResult
	for iteration := 0; ; iteration++ {
		if i.cancel() {
			return blockOutcome{results: results, kind: outcomeStopped}
		}
		match, err := i.evalCondition(l.Condition)
		if err != nil {
			wrapped := &errs.ActionError{ActionName: l.Name(), ActionType: l.Type(), Cause: err}
			return blockOutcome{results: results, kind: outcomeFailed, err: wrapped}
		}
		if !match {
			break
		}
		if iteration >= limit {
			err := &errs.ActionError{ActionName: l.Name(), ActionType: l.Type(), Cause: fmt.Errorf("while loop exceeded %d iterations", limit)}
			return blockOutcome{results: results, kind: outcomeFailed, err: err}
		}

		i.ctx.Push(map[string]any{"loop_index": iteration, "loop_iteration": iteration + 1})
		sub := i.runBlock(l.LoopActions)
		i.ctx.Pop()
		results = append(results, sub.results...)
		if sub.kind != outcomeOK {
			return blockOutcome{results: results, kind: sub.kind, err: sub.err}
		}
	}
	return blockOutcome{results: results, kind: outcomeOK}
}

func (i *Interpreter) runErrorHandling(e *action.ErrorHandling) blockOutcome {
	try := i.runBlock(e.TryActions)
	if try.kind != outcomeFailed {
		// ok or stopped both pass through untouched: cancellation is
		// never caught by a try/catch.
		return try
	}

	if len(e.CatchActions) == 0 {
		return try
	}

	i.ctx.Push(map[string]any{
		"try_block_error_message": try.err.Error(),
		"try_block_error_type":    errorTypeName(try.err),
	})
	catch := i.runBlock(e.CatchActions)
	i.ctx.Pop()

	results := append(try.results, catch.results...)
	if catch.kind == outcomeFailed {
		wrapped := &errs.WorkflowError{
			Workflow: e.Name(),
			Cause:    fmt.Errorf("catch block failed (%v) after try block failed (%w)", catch.err, try.err),
		}
		return blockOutcome{results: results, kind: outcomeFailed, err: wrapped}
	}
	if catch.kind == outcomeStopped {
		return blockOutcome{results: results, kind: outcomeStopped}
	}
	// catch succeeded: the original try error is considered handled.
	return blockOutcome{results: results, kind: outcomeOK}
}

func errorTypeName(err error) string {
	switch err.(type) {
	case *errs.DriverError:
		return "DriverError"
	case *errs.ActionError:
		return "ActionError"
	case *errs.WorkflowError:
		return "WorkflowError"
	case *errs.CredentialError:
		return "CredentialError"
	case *errs.RepositoryError:
		return "RepositoryError"
	case *errs.ValidationError:
		return "ValidationError"
	default:
		return "error"
	}
}

