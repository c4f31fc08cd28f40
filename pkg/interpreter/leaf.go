package interpreter

import (
	"context"
	"fmt"
	"time"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/errs"
	"dev/bravebird/workflow-engine/pkg/execctx"
	"dev/bravebird/workflow-engine/pkg/model"
)

// executeLeaf invokes the BrowserDriver operation for a.  stopped is
// true only when a Wait's sleep was interrupted by cancellation; in
// that case err is always nil and the caller should treat the block as
// STOPPED, not FAILED.
func (i *Interpreter) executeLeaf(a action.Action) (status model.ActionResultStatus, message string, stopped bool, err error) {
	switch v := a.(type) {
	case *action.Navigate:
		url := i.substitute(v.URL)
		if derr := i.driver.Get(url); derr != nil {
			return i.leafFailure(a, derr)
		}
		return model.ActionSuccess, fmt.Sprintf("navigated to %s", url), false, nil

	case *action.Click:
		if derr := i.driver.Click(v.Selector); derr != nil {
			return i.leafFailure(a, derr)
		}
		return model.ActionSuccess, fmt.Sprintf("clicked %s", v.Selector), false, nil

	case *action.Type:
		text, rerr := i.resolveTypeValue(v)
		if rerr != nil {
			return i.leafFailure(a, rerr)
		}
		if derr := i.driver.TypeText(v.Selector, text); derr != nil {
			return i.leafFailure(a, derr)
		}
		return model.ActionSuccess, fmt.Sprintf("typed into %s", v.Selector), false, nil

	case *action.Wait:
		if i.sleepInterruptible(v.DurationSeconds) {
			return model.ActionFailed, "wait interrupted by cancellation", true, nil
		}
		return model.ActionSuccess, fmt.Sprintf("waited %.2fs", v.DurationSeconds), false, nil

	case *action.Screenshot:
		path := i.substitute(v.FilePath)
		if derr := i.driver.Screenshot(path); derr != nil {
			return i.leafFailure(a, derr)
		}
		return model.ActionSuccess, fmt.Sprintf("screenshot saved to %s", path), false, nil

	default:
		err := &errs.ActionError{ActionName: a.Name(), ActionType: a.Type(), Cause: fmt.Errorf("unsupported action type %q", a.Type())}
		return model.ActionFailed, err.Error(), false, err
	}
}

func (i *Interpreter) leafFailure(a action.Action, cause error) (model.ActionResultStatus, string, bool, error) {
	wrapped := &errs.ActionError{ActionName: a.Name(), ActionType: a.Type(), Cause: cause}
	return model.ActionFailed, wrapped.Error(), false, wrapped
}

// resolveTypeValue returns the literal text to type: ValueKey with its
// "${name}" placeholders substituted for ValueText, or the credential
// store's resolution of
// "credName.(username|password)" for ValueCredential.
func (i *Interpreter) resolveTypeValue(t *action.Type) (string, error) {
	if t.ValueType == action.ValueText {
		return i.substitute(t.ValueKey), nil
	}
	name, field, ok := action.SplitCredentialKey(t.ValueKey)
	if !ok {
		return "", &errs.CredentialError{Name: t.ValueKey, Message: "malformed credential value_key"}
	}
	return i.credStore.ResolveForAction(context.Background(), name, field)
}

// substitute expands "${name}" placeholders in s against the current
// scope stack, leaving unbound names untouched.
func (i *Interpreter) substitute(s string) string {
	return execctx.Substitute(s, i.ctx.Snapshot())
}

// sleepInterruptible sleeps for seconds, polling Cancel at
// waitPollInterval granularity. It returns true if cancellation fired
// before the full duration elapsed.
func (i *Interpreter) sleepInterruptible(seconds float64) bool {
	remaining := time.Duration(seconds * float64(time.Second))
	for remaining > 0 {
		if i.cancel() {
			return true
		}
		step := waitPollInterval
		if step > remaining {
			step = remaining
		}
		time.Sleep(step)
		remaining -= step
	}
	return i.cancel()
}
