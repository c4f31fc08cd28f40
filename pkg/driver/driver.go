// Package driver defines the abstract browser automation capability the
// interpreter depends on. The concrete implementation (rodriver) is an
// external collaborator reached only through this interface — the
// interpreter never imports go-rod, Selenium bindings, or any other
// concrete driver package directly.
package driver

import "time"

// BrowserDriver is every capability a leaf action may invoke. Every
// method may fail with an *errs.DriverError. Implementations must be
// safe to use from exactly one goroutine at a time — the interpreter
// never calls a Driver concurrently with itself.
type BrowserDriver interface {
	// Type returns a stable identifier such as "chrome" or "firefox".
	Type() string

	Get(url string) error
	Quit() error

	Click(selector string) error
	TypeText(selector, text string) error
	IsElementPresent(selector string) (bool, error)
	WaitForElement(selector string, timeout time.Duration) error

	Screenshot(path string) error

	ExecuteScript(script string, args ...any) (any, error)
	CurrentURL() (string, error)

	SwitchToFrame(ref string) error
	SwitchToDefaultContent() error

	AcceptAlert() error
	DismissAlert() error
	AlertText() (string, error)
}

// Factory constructs a BrowserDriver for a given browser type, failing
// with an *errs.DriverError when the type is unsupported.
type Factory interface {
	NewDriver(browserType string) (BrowserDriver, error)
}
