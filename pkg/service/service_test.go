package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dev/bravebird/workflow-engine/pkg/credential"
	"dev/bravebird/workflow-engine/pkg/driver"
	"dev/bravebird/workflow-engine/pkg/model"
	"dev/bravebird/workflow-engine/pkg/repository/filerepo"
)

type stubDriver struct{ quitCalls int }

func (d *stubDriver) Type() string                                         { return "stub" }
func (d *stubDriver) Get(url string) error                                 { return nil }
func (d *stubDriver) Quit() error                                          { d.quitCalls++; return nil }
func (d *stubDriver) Click(selector string) error                          { return nil }
func (d *stubDriver) TypeText(selector, text string) error                 { return nil }
func (d *stubDriver) IsElementPresent(selector string) (bool, error)       { return true, nil }
func (d *stubDriver) WaitForElement(selector string, t time.Duration) error { return nil }
func (d *stubDriver) Screenshot(path string) error                         { return nil }
func (d *stubDriver) ExecuteScript(script string, args ...any) (any, error) { return true, nil }
func (d *stubDriver) CurrentURL() (string, error)                          { return "", nil }
func (d *stubDriver) SwitchToFrame(ref string) error                       { return nil }
func (d *stubDriver) SwitchToDefaultContent() error                        { return nil }
func (d *stubDriver) AcceptAlert() error                                   { return nil }
func (d *stubDriver) DismissAlert() error                                  { return nil }
func (d *stubDriver) AlertText() (string, error)                           { return "", nil }

type fakeDriverFactory struct{ drv *stubDriver }

func (f fakeDriverFactory) NewDriver(browserType string) (driver.BrowserDriver, error) {
	return f.drv, nil
}

func TestServiceRunPersistsLog(t *testing.T) {
	dir := t.TempDir()
	repo, err := filerepo.New(filerepo.Options{
		WorkflowsPath:   dir,
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		CreateIfMissing: true,
	})
	if err != nil {
		t.Fatalf("filerepo.New: %v", err)
	}
	store, err := credential.New(repo.Credentials(), credential.Options{})
	if err != nil {
		t.Fatalf("credential.New: %v", err)
	}
	drv := &stubDriver{}
	svc := New(repo, store, fakeDriverFactory{drv})

	ctx := context.Background()
	if err := svc.CreateWorkflow(ctx, "wf1"); err != nil {
		t.Fatalf("CreateWorkflow: %v", err)
	}
	actionsData := []any{
		map[string]any{"type": "Navigate", "name": "go", "url": "https://example.com"},
	}
	if err := svc.SaveWorkflow(ctx, "wf1", actionsData); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	log, err := svc.Run(ctx, "wf1", "", "stub", nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if log.FinalStatus != model.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", log.FinalStatus)
	}
	if drv.quitCalls != 1 {
		t.Errorf("expected exactly one Quit call, got %d", drv.quitCalls)
	}

	stored, ok, err := svc.GetLog(ctx, log.ID)
	if err != nil || !ok {
		t.Fatalf("GetLog: ok=%v err=%v", ok, err)
	}
	if stored.WorkflowName != "wf1" {
		t.Errorf("expected stored log for wf1, got %s", stored.WorkflowName)
	}
}

func TestServiceRunUnsupportedBrowser(t *testing.T) {
	dir := t.TempDir()
	repo, err := filerepo.New(filerepo.Options{
		WorkflowsPath:   dir,
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		CreateIfMissing: true,
	})
	if err != nil {
		t.Fatalf("filerepo.New: %v", err)
	}
	store, err := credential.New(repo.Credentials(), credential.Options{})
	if err != nil {
		t.Fatalf("credential.New: %v", err)
	}
	svc := New(repo, store, failingFactory{})

	if err := svc.CreateWorkflow(context.Background(), "wf1"); err != nil {
		t.Fatalf("CreateWorkflow: %v", err)
	}
	if err := svc.SaveWorkflow(context.Background(), "wf1", nil); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	if _, err := svc.Run(context.Background(), "wf1", "", "nonexistent", nil, nil); err == nil {
		t.Fatal("expected an error for an unsupported browser type")
	}
}

func TestServiceRunRejectsUnknownCredential(t *testing.T) {
	dir := t.TempDir()
	repo, err := filerepo.New(filerepo.Options{
		WorkflowsPath:   dir,
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		CreateIfMissing: true,
	})
	if err != nil {
		t.Fatalf("filerepo.New: %v", err)
	}
	store, err := credential.New(repo.Credentials(), credential.Options{})
	if err != nil {
		t.Fatalf("credential.New: %v", err)
	}
	svc := New(repo, store, fakeDriverFactory{&stubDriver{}})

	ctx := context.Background()
	if err := svc.CreateWorkflow(ctx, "wf1"); err != nil {
		t.Fatalf("CreateWorkflow: %v", err)
	}
	if err := svc.SaveWorkflow(ctx, "wf1", nil); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}

	if _, err := svc.Run(ctx, "wf1", "does-not-exist", "stub", nil, nil); err == nil {
		t.Fatal("expected an error for a nonexistent credential_name")
	}
}

type failingFactory struct{}

func (failingFactory) NewDriver(browserType string) (driver.BrowserDriver, error) {
	return nil, errUnsupported
}

var errUnsupported = &unsupportedErr{}

type unsupportedErr struct{}

func (*unsupportedErr) Error() string { return "unsupported browser type" }
