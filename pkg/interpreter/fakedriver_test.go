package interpreter

import (
	"context"
	"fmt"
	"time"
)

// call records a single BrowserDriver invocation, in the order the
// interpreter issued it.
type call struct {
	method string
	args   []any
}

// fakeDriver is a hand-written BrowserDriver test double recording
// every call in order, so tests can assert the ordering guarantees
// spec.md §5 describes without a mocking framework.
type fakeDriver struct {
	calls []call

	presentSelectors map[string]bool
	scriptResults    map[string]any
	scriptErr        error
	failOn           map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		presentSelectors: make(map[string]bool),
		scriptResults:    make(map[string]any),
		failOn:           make(map[string]error),
	}
}

func (f *fakeDriver) record(method string, args ...any) {
	f.calls = append(f.calls, call{method: method, args: args})
}

func (f *fakeDriver) Type() string { return "fake" }

func (f *fakeDriver) Get(url string) error {
	f.record("Get", url)
	return f.failOn["Get"]
}

func (f *fakeDriver) Quit() error {
	f.record("Quit")
	return f.failOn["Quit"]
}

func (f *fakeDriver) Click(selector string) error {
	f.record("Click", selector)
	return f.failOn["Click"]
}

func (f *fakeDriver) TypeText(selector, text string) error {
	f.record("TypeText", selector, text)
	return f.failOn["TypeText"]
}

func (f *fakeDriver) IsElementPresent(selector string) (bool, error) {
	f.record("IsElementPresent", selector)
	if err := f.failOn["IsElementPresent"]; err != nil {
		return false, err
	}
	return f.presentSelectors[selector], nil
}

func (f *fakeDriver) WaitForElement(selector string, timeout time.Duration) error {
	f.record("WaitForElement", selector, timeout)
	return f.failOn["WaitForElement"]
}

func (f *fakeDriver) Screenshot(path string) error {
	f.record("Screenshot", path)
	return f.failOn["Screenshot"]
}

func (f *fakeDriver) ExecuteScript(script string, args ...any) (any, error) {
	f.record("ExecuteScript", script)
	if f.scriptErr != nil {
		return nil, f.scriptErr
	}
	return f.scriptResults[script], nil
}

func (f *fakeDriver) CurrentURL() (string, error) {
	f.record("CurrentURL")
	return "", f.failOn["CurrentURL"]
}

func (f *fakeDriver) SwitchToFrame(ref string) error {
	f.record("SwitchToFrame", ref)
	return f.failOn["SwitchToFrame"]
}

func (f *fakeDriver) SwitchToDefaultContent() error {
	f.record("SwitchToDefaultContent")
	return f.failOn["SwitchToDefaultContent"]
}

func (f *fakeDriver) AcceptAlert() error {
	f.record("AcceptAlert")
	return f.failOn["AcceptAlert"]
}

func (f *fakeDriver) DismissAlert() error {
	f.record("DismissAlert")
	return f.failOn["DismissAlert"]
}

func (f *fakeDriver) AlertText() (string, error) {
	f.record("AlertText")
	return "", f.failOn["AlertText"]
}

// fakeTemplates is an in-memory TemplateRepo double.
type fakeTemplates struct {
	data map[string][]any
}

func newFakeTemplates() *fakeTemplates { return &fakeTemplates{data: make(map[string][]any)} }

func (f *fakeTemplates) SaveTemplate(_ context.Context, name string, actionsData []any) error {
	f.data[name] = actionsData
	return nil
}

func (f *fakeTemplates) LoadTemplate(_ context.Context, name string) ([]any, error) {
	v, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return v, nil
}

func (f *fakeTemplates) DeleteTemplate(_ context.Context, name string) (bool, error) {
	_, ok := f.data[name]
	delete(f.data, name)
	return ok, nil
}

func (f *fakeTemplates) ListTemplates(_ context.Context) ([]string, error) {
	var names []string
	for k := range f.data {
		names = append(names, k)
	}
	return names, nil
}
