// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

var (
	// ErrUnknownBrowser is returned when the configured browser or driver
	// name has no backend.
	ErrUnknownBrowser = errors.New("unknown browser")
	// ErrNoElement is returned when a selector matches nothing.
	ErrNoElement = errors.New("no element matches selector")
)

// Kind is the strategy a Selector uses to find its element.
type Kind int

const (
	XPath Kind = iota
	CSS
	// Script selectors are JavaScript expressions that evaluate to an element
	// or null.
	Script
)

func (k Kind) String() string {
	switch k {
	case XPath:
		return "xpath"
	case CSS:
		return "css"
	case Script:
		return "script"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Selector is one way of finding an element.
type Selector struct {
	Kind Kind
	Expr string
}

func (s Selector) String() string { return s.Kind.String() + ":" + s.Expr }

// ByXPath, ByCSS and ByScript build selectors of each kind.
func ByXPath(expr string) Selector  { return Selector{Kind: XPath, Expr: expr} }
func ByCSS(expr string) Selector    { return Selector{Kind: CSS, Expr: expr} }
func ByScript(expr string) Selector { return Selector{Kind: Script, Expr: expr} }

// Driver is the small browser surface the form filler needs. Every backend
// implements Script selectors through Eval with the shared templates in
// scripts.go.
type Driver interface {
	// Navigate loads url and returns once the navigation committed.
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until document.readyState is "complete".
	WaitReady(ctx context.Context) error
	// Exists reports whether sel matches a rendered element.
	Exists(ctx context.Context, sel Selector) (bool, error)
	Click(ctx context.Context, sel Selector) error
	// Type clears the element and types text into it.
	Type(ctx context.Context, sel Selector, text string) error
	// Eval evaluates a JavaScript expression and decodes its JSON value
	// into out. out may be nil.
	Eval(ctx context.Context, script string, out any) error
	Screenshot(ctx context.Context) ([]byte, error)
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

// Backend names accepted by browser.driver.
const (
	BackendCDP       = "cdp"
	BackendRod       = "rod"
	BackendWebDriver = "webdriver"
)

// ResolveBackend decides which backend drives the configured browser. An
// explicit browser.driver wins; otherwise Chromium-family browsers use CDP
// and everything else goes through WebDriver.
func ResolveBackend(cfg config.BrowserConfig) (string, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	switch strings.ToLower(cfg.Driver) {
	case BackendCDP, BackendRod:
		if !isChromium(name) {
			return "", fmt.Errorf("%w: %s cannot be driven over CDP", ErrUnknownBrowser, cfg.Name)
		}
		return strings.ToLower(cfg.Driver), nil
	case BackendWebDriver:
		if _, ok := webDriverNames[name]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, cfg.Name)
		}
		return BackendWebDriver, nil
	case "":
	default:
		return "", fmt.Errorf("%w: driver %q", ErrUnknownBrowser, cfg.Driver)
	}

	if isChromium(name) {
		return BackendCDP, nil
	}
	if _, ok := webDriverNames[name]; ok {
		return BackendWebDriver, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBrowser, cfg.Name)
}

func isChromium(name string) bool {
	return name == "chrome" || name == "chromium"
}

// webDriverNames maps browser names to WebDriver browserName capabilities.
var webDriverNames = map[string]string{
	"chrome":   "chrome",
	"chromium": "chrome",
	"firefox":  "firefox",
	"edge":     "MicrosoftEdge",
	"safari":   "safari",
}

// Open starts the configured browser and returns a driver bound to a single
// page. The browser outlives ctx; call Close to release it.
func Open(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Driver, error) {
	backend, err := ResolveBackend(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Opening browser.",
		zap.String("browser", cfg.Name),
		zap.String("backend", backend),
		zap.Bool("headless", cfg.Headless),
	)

	switch backend {
	case BackendCDP:
		return NewCDPDriver(ctx, cfg, logger)
	case BackendRod:
		return NewRodDriver(ctx, cfg, logger)
	default:
		return NewWebDriver(ctx, cfg, logger)
	}
}
