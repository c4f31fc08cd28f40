// Package rodriver implements driver.BrowserDriver over
// github.com/go-rod/rod, driving a real Chromium-family browser. It
// adapts the launcher/connect/page sequence from the teacher's
// pkg/temporal/activities.InitializeBrowserActivity, generalized to one
// driver instance owning exactly one browser and one page rather than a
// pooled multi-session map — SPEC_FULL.md's concurrency model gives
// each run its own BrowserDriver.
package rodriver

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"dev/bravebird/workflow-engine/pkg/driver"
	"dev/bravebird/workflow-engine/pkg/errs"
)

// supportedBrowsers is the set of browser types this factory can drive.
// go-rod speaks the Chrome DevTools Protocol, so only Chromium-family
// browsers are reachable through it.
var supportedBrowsers = map[string]bool{"chrome": true, "chromium": true, "edge": true}

// Options configures how a Driver launches its browser.
type Options struct {
	Headless bool
	Bin      string // overrides CHROME_BIN when set
}

// Factory builds rod-backed BrowserDrivers.
type Factory struct {
	Options Options
}

// NewFactory returns a Factory applying opts to every driver it builds.
func NewFactory(opts Options) *Factory {
	return &Factory{Options: opts}
}

// NewDriver implements driver.Factory.
func (f *Factory) NewDriver(browserType string) (driver.BrowserDriver, error) {
	browserType = strings.ToLower(browserType)
	if !supportedBrowsers[browserType] {
		return nil, &errs.DriverError{Op: "NewDriver", Message: fmt.Sprintf("unsupported browser type %q", browserType)}
	}

	l := launcher.New()
	if bin := f.Options.Bin; bin != "" {
		l = l.Bin(bin)
	} else if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		l = l.Bin(chromeBin)
	}
	l = l.Headless(f.Options.Headless)
	l = l.Set("no-sandbox")
	l = l.Set("disable-gpu")
	l = l.Set("disable-dev-shm-usage")

	url, err := l.Launch()
	if err != nil {
		return nil, &errs.DriverError{Op: "NewDriver", Cause: err, Message: "failed to launch browser"}
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, &errs.DriverError{Op: "NewDriver", Cause: err, Message: "failed to connect to browser"}
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		return nil, &errs.DriverError{Op: "NewDriver", Cause: err, Message: "failed to create page"}
	}

	return &Driver{browserType: browserType, browser: browser, page: page, rootPage: page}, nil
}

// Driver is a single-session driver.BrowserDriver. It is not safe for
// concurrent use, matching the interface's contract.
type Driver struct {
	browserType string
	browser     *rod.Browser
	page        *rod.Page // current frame/page target
	rootPage    *rod.Page // top-level page, restored by SwitchToDefaultContent
}

func (d *Driver) Type() string { return d.browserType }

func (d *Driver) Get(url string) error {
	if err := d.page.Navigate(url); err != nil {
		return &errs.DriverError{Op: "Get", Cause: err}
	}
	if err := d.page.WaitLoad(); err != nil {
		return &errs.DriverError{Op: "Get", Cause: err}
	}
	return nil
}

func (d *Driver) Quit() error {
	if d.browser == nil {
		return nil
	}
	if err := d.browser.Close(); err != nil {
		return &errs.DriverError{Op: "Quit", Cause: err}
	}
	d.browser = nil
	return nil
}

func (d *Driver) Click(selector string) error {
	elem, err := d.page.Element(selector)
	if err != nil {
		return &errs.DriverError{Op: "Click", Cause: err, Message: fmt.Sprintf("element not found: %s", selector)}
	}
	if err := elem.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return &errs.DriverError{Op: "Click", Cause: err}
	}
	return nil
}

func (d *Driver) TypeText(selector, text string) error {
	elem, err := d.page.Element(selector)
	if err != nil {
		return &errs.DriverError{Op: "TypeText", Cause: err, Message: fmt.Sprintf("element not found: %s", selector)}
	}
	if err := elem.SelectAllText(); err != nil {
		return &errs.DriverError{Op: "TypeText", Cause: err}
	}
	if err := elem.Input(text); err != nil {
		return &errs.DriverError{Op: "TypeText", Cause: err}
	}
	return nil
}

func (d *Driver) IsElementPresent(selector string) (bool, error) {
	has, _, err := d.page.Has(selector)
	if err != nil {
		return false, &errs.DriverError{Op: "IsElementPresent", Cause: err}
	}
	return has, nil
}

func (d *Driver) WaitForElement(selector string, timeout time.Duration) error {
	page := d.page.Timeout(timeout)
	if _, err := page.Element(selector); err != nil {
		return &errs.DriverError{Op: "WaitForElement", Cause: err, Message: fmt.Sprintf("selector %q not present within %s", selector, timeout)}
	}
	return nil
}

func (d *Driver) Screenshot(path string) error {
	data, err := d.page.Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return &errs.DriverError{Op: "Screenshot", Cause: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errs.DriverError{Op: "Screenshot", Cause: err, Message: "failed to save screenshot"}
	}
	return nil
}

func (d *Driver) ExecuteScript(script string, args ...any) (any, error) {
	result, err := d.page.Eval(script, args...)
	if err != nil {
		return nil, &errs.DriverError{Op: "ExecuteScript", Cause: err}
	}
	return result.Value.Val(), nil
}

func (d *Driver) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", &errs.DriverError{Op: "CurrentURL", Cause: err}
	}
	return info.URL, nil
}

func (d *Driver) SwitchToFrame(ref string) error {
	frame, err := d.rootPage.Element(ref)
	if err != nil {
		return &errs.DriverError{Op: "SwitchToFrame", Cause: err, Message: fmt.Sprintf("frame %q not found", ref)}
	}
	framePage, err := frame.Frame()
	if err != nil {
		return &errs.DriverError{Op: "SwitchToFrame", Cause: err}
	}
	d.page = framePage
	return nil
}

func (d *Driver) SwitchToDefaultContent() error {
	d.page = d.rootPage
	return nil
}

// Alert handling assumes a dialog is already open (the leaf action that
// provoked it ran immediately before), so the wait half of
// HandleDialog's pair is only used by AlertText to read the pending
// dialog's message.
func (d *Driver) AcceptAlert() error {
	_, handle := d.rootPage.HandleDialog()
	if err := handle(true, ""); err != nil {
		return &errs.DriverError{Op: "AcceptAlert", Cause: err}
	}
	return nil
}

func (d *Driver) DismissAlert() error {
	_, handle := d.rootPage.HandleDialog()
	if err := handle(false, ""); err != nil {
		return &errs.DriverError{Op: "DismissAlert", Cause: err}
	}
	return nil
}

func (d *Driver) AlertText() (string, error) {
	wait, _ := d.rootPage.HandleDialog()
	dialog := wait()
	return dialog.Message, nil
}

var _ driver.BrowserDriver = (*Driver)(nil)
var _ driver.Factory = (*Factory)(nil)
