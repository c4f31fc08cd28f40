package interpreter

import (
	"testing"

	"dev/bravebird/workflow-engine/pkg/action"
	"dev/bravebird/workflow-engine/pkg/model"
)

func navigate(name, url string) action.Action {
	a, err := action.NewFactory().Create(map[string]any{"type": "Navigate", "name": name, "url": url})
	if err != nil {
		panic(err)
	}
	return a
}

func click(name, selector string) action.Action {
	a, err := action.NewFactory().Create(map[string]any{"type": "Click", "name": name, "selector": selector})
	if err != nil {
		panic(err)
	}
	return a
}

func TestRunSequentialOrdering(t *testing.T) {
	drv := newFakeDriver()
	i := New(drv, nil, newFakeTemplates(), nil)

	actions := []action.Action{
		navigate("go", "https://example.com"),
		click("c1", "#one"),
		click("c2", "#two"),
	}
	log := i.Run(actions, "wf")

	if log.FinalStatus != model.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", log.FinalStatus, log.ErrorMessage)
	}
	if len(log.ActionResults) != 3 {
		t.Fatalf("expected 3 action results, got %d", len(log.ActionResults))
	}
	wantOrder := []string{"Get", "Click", "Click"}
	if len(drv.calls) != len(wantOrder) {
		t.Fatalf("expected %d driver calls, got %d", len(wantOrder), len(drv.calls))
	}
	for idx, method := range wantOrder {
		if drv.calls[idx].method != method {
			t.Errorf("call %d: got %s, want %s", idx, drv.calls[idx].method, method)
		}
	}
}

func TestRunFailurePropagates(t *testing.T) {
	drv := newFakeDriver()
	drv.failOn["Click"] = errBoom
	i := New(drv, nil, newFakeTemplates(), nil)

	actions := []action.Action{
		click("c1", "#missing"),
		navigate("unreached", "https://example.com"),
	}
	log := i.Run(actions, "wf")

	if log.FinalStatus != model.StatusFailed {
		t.Fatalf("expected FAILED, got %s", log.FinalStatus)
	}
	if log.ErrorMessage == "" {
		t.Error("expected a populated error message")
	}
	if len(log.ActionResults) != 1 {
		t.Fatalf("expected exactly one recorded result (the failing action), got %d", len(log.ActionResults))
	}
	for _, c := range drv.calls {
		if c.method == "Get" {
			t.Error("second action must not execute after the first fails")
		}
	}
}

func TestRunCancellationStops(t *testing.T) {
	drv := newFakeDriver()
	calls := 0
	cancel := func() bool {
		calls++
		return calls > 1
	}
	i := New(drv, nil, newFakeTemplates(), cancel)

	actions := []action.Action{
		click("c1", "#one"),
		click("c2", "#two"),
		click("c3", "#three"),
	}
	log := i.Run(actions, "wf")

	if log.FinalStatus != model.StatusStopped {
		t.Fatalf("expected STOPPED, got %s", log.FinalStatus)
	}
}

func TestConditionalBranchSelection(t *testing.T) {
	drv := newFakeDriver()
	drv.presentSelectors["#exists"] = true
	i := New(drv, nil, newFakeTemplates(), nil)

	conditional, err := action.NewFactory().Create(map[string]any{
		"type":           "Conditional",
		"name":           "cond",
		"condition_type": "element_present",
		"selector":       "#exists",
		"true_branch": []any{
			map[string]any{"type": "Click", "name": "t", "selector": "#true-path"},
		},
		"false_branch": []any{
			map[string]any{"type": "Click", "name": "f", "selector": "#false-path"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}
	actions := []action.Action{conditional}
	log := i.Run(actions, "wf")

	if log.FinalStatus != model.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", log.FinalStatus, log.ErrorMessage)
	}
	found := false
	for _, c := range drv.calls {
		if c.method == "Click" && c.args[0] == "#true-path" {
			found = true
		}
		if c.method == "Click" && c.args[0] == "#false-path" {
			t.Error("false branch must not execute when condition is true")
		}
	}
	if !found {
		t.Error("true branch did not execute")
	}
}

// TestForEachLoopSubstitutesLoopItem covers the for-each scenario: each
// iteration's TypeText call must see the substituted "${loop_item}"
// value, not the literal placeholder.
func TestForEachLoopSubstitutesLoopItem(t *testing.T) {
	drv := newFakeDriver()
	i := New(drv, nil, newFakeTemplates(), nil)
	i.ctx.Set("items", []any{"a", "b", "c"})

	loop, err := action.NewFactory().Create(map[string]any{
		"type":               "Loop",
		"name":               "each",
		"loop_type":          "for_each",
		"list_variable_name": "items",
		"loop_actions": []any{
			map[string]any{"type": "Type", "name": "t", "selector": "#in", "value_type": "text", "value_key": "${loop_item}"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}
	log := i.Run([]action.Action{loop}, "wf")

	if log.FinalStatus != model.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", log.FinalStatus, log.ErrorMessage)
	}
	var typed []call
	for _, c := range drv.calls {
		if c.method == "TypeText" {
			typed = append(typed, c)
		}
	}
	want := []string{"a", "b", "c"}
	if len(typed) != len(want) {
		t.Fatalf("expected %d TypeText calls, got %d", len(want), len(typed))
	}
	for idx, w := range want {
		if got := typed[idx].args[1]; got != w {
			t.Errorf("call %d: got %v, want %q", idx, got, w)
		}
	}
}

// TestErrorHandlingRecoversFromFailure covers try/catch: a failing try
// block's error is caught and the catch block's success determines the
// overall outcome.
func TestErrorHandlingRecoversFromFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.failOn["Click"] = errBoom
	i := New(drv, nil, newFakeTemplates(), nil)

	handling, err := action.NewFactory().Create(map[string]any{
		"type": "ErrorHandling",
		"name": "guard",
		"try_actions": []any{
			map[string]any{"type": "Click", "name": "risky", "selector": "#missing"},
		},
		"catch_actions": []any{
			map[string]any{"type": "Navigate", "name": "recover", "url": "https://example.com/recover"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}
	log := i.Run([]action.Action{handling}, "wf")

	if log.FinalStatus != model.StatusSuccess {
		t.Fatalf("expected SUCCESS after recovery, got %s (%s)", log.FinalStatus, log.ErrorMessage)
	}
	foundRecover := false
	for _, c := range drv.calls {
		if c.method == "Get" && c.args[0] == "https://example.com/recover" {
			foundRecover = true
		}
	}
	if !foundRecover {
		t.Error("catch block did not execute")
	}
}

// TestCancellationMidLoopStops covers cancellation observed between
// loop iterations, not just between flat top-level actions.
func TestCancellationMidLoopStops(t *testing.T) {
	drv := newFakeDriver()
	calls := 0
	cancel := func() bool {
		calls++
		return calls > 2
	}
	i := New(drv, nil, newFakeTemplates(), cancel)

	loop, err := action.NewFactory().Create(map[string]any{
		"type":      "Loop",
		"name":      "countUp",
		"loop_type": "count",
		"count":     5,
		"loop_actions": []any{
			map[string]any{"type": "Click", "name": "c", "selector": "#tick"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}
	log := i.Run([]action.Action{loop}, "wf")

	if log.FinalStatus != model.StatusStopped {
		t.Fatalf("expected STOPPED, got %s", log.FinalStatus)
	}
	clicks := 0
	for _, c := range drv.calls {
		if c.method == "Click" {
			clicks++
		}
	}
	if clicks >= 5 {
		t.Errorf("expected cancellation to cut the loop short of all 5 iterations, got %d clicks", clicks)
	}
}

// TestTemplateCycleRejected covers a template that (transitively)
// references itself: expansion must fail rather than recurse forever.
func TestTemplateCycleRejected(t *testing.T) {
	drv := newFakeDriver()
	templates := newFakeTemplates()
	templates.data["cyclic"] = []any{
		map[string]any{"type": "Template", "name": "loop-back", "template_name": "cyclic"},
	}
	i := New(drv, nil, templates, nil)

	tmpl, err := action.NewFactory().Create(map[string]any{"type": "Template", "name": "start", "template_name": "cyclic"})
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}
	log := i.Run([]action.Action{tmpl}, "wf")

	if log.FinalStatus != model.StatusFailed {
		t.Fatalf("expected FAILED for a cyclic template, got %s", log.FinalStatus)
	}
	if log.ErrorMessage == "" {
		t.Error("expected a populated error message describing the cycle")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
