// internal/browser/webdriver.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

// WebDriver drives any W3C WebDriver endpoint (Selenium, geckodriver,
// safaridriver, msedgedriver) with tebeka/selenium.
type WebDriver struct {
	wd     selenium.WebDriver
	logger *zap.Logger
}

var _ Driver = (*WebDriver)(nil)

// NewWebDriver opens a remote session at cfg.WebDriverURL.
func NewWebDriver(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*WebDriver, error) {
	log := logger.Named("webdriver")

	wd, err := withContext(ctx, func() (selenium.WebDriver, error) {
		return selenium.NewRemote(capabilities(cfg), cfg.WebDriverURL)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webdriver session at %s: %w", cfg.WebDriverURL, err)
	}

	if w, h := viewport(cfg); w > 0 && h > 0 {
		if err := wd.ResizeWindow("", w, h); err != nil {
			log.Debug("Failed to resize window.", zap.Error(err))
		}
	}

	log.Debug("WebDriver session started.", zap.String("url", cfg.WebDriverURL))
	return &WebDriver{wd: wd, logger: log}, nil
}

// capabilities builds the session capabilities for the configured browser.
func capabilities(cfg config.BrowserConfig) selenium.Capabilities {
	name := strings.ToLower(cfg.Name)
	caps := selenium.Capabilities{"browserName": webDriverNames[name]}
	if cfg.IgnoreTLSErrors {
		caps["acceptInsecureCerts"] = true
	}

	var args []string
	switch name {
	case "firefox":
		if cfg.Headless {
			args = append(args, "-headless")
		}
		args = append(args, cfg.Args...)
		opts := map[string]any{"args": args}
		if cfg.ExecPath != "" {
			opts["binary"] = cfg.ExecPath
		}
		caps["moz:firefoxOptions"] = opts
	case "chrome", "chromium", "edge":
		if cfg.Headless {
			args = append(args, "--headless=new")
		}
		if cfg.Stealth {
			args = append(args, "--disable-blink-features=AutomationControlled")
		}
		args = append(args, cfg.Args...)
		opts := map[string]any{"args": args}
		if cfg.ExecPath != "" {
			opts["binary"] = cfg.ExecPath
		}
		key := "goog:chromeOptions"
		if name == "edge" {
			key = "ms:edgeOptions"
		}
		caps[key] = opts
	}
	return caps
}

// withContext runs a blocking WebDriver call and gives up when ctx is done.
// The wire call itself cannot be interrupted and finishes in the background.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (d *WebDriver) find(ctx context.Context, sel Selector) (selenium.WebElement, error) {
	by := selenium.ByCSSSelector
	if sel.Kind == XPath {
		by = selenium.ByXPATH
	}
	el, err := withContext(ctx, func() (selenium.WebElement, error) {
		return d.wd.FindElement(by, sel.Expr)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sel, err)
	}
	return el, nil
}

func (d *WebDriver) Navigate(ctx context.Context, url string) error {
	_, err := withContext(ctx, func() (struct{}, error) {
		return struct{}{}, d.wd.Get(url)
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (d *WebDriver) WaitReady(ctx context.Context) error {
	return waitReadyState(ctx, d)
}

func (d *WebDriver) Exists(ctx context.Context, sel Selector) (bool, error) {
	return evalExists(ctx, d, sel)
}

func (d *WebDriver) Click(ctx context.Context, sel Selector) error {
	if sel.Kind == Script {
		return evalClick(ctx, d, sel)
	}
	el, err := d.find(ctx, sel)
	if err != nil {
		return err
	}
	_, err = withContext(ctx, func() (struct{}, error) {
		return struct{}{}, el.Click()
	})
	return err
}

func (d *WebDriver) Type(ctx context.Context, sel Selector, text string) error {
	if sel.Kind == Script {
		return evalSetValue(ctx, d, sel, text)
	}
	el, err := d.find(ctx, sel)
	if err != nil {
		return err
	}
	_, err = withContext(ctx, func() (struct{}, error) {
		if err := el.Clear(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, el.SendKeys(text)
	})
	return err
}

// Eval runs script as the return value of a WebDriver script body. The
// result is re-encoded as JSON and decoded into out.
func (d *WebDriver) Eval(ctx context.Context, script string, out any) error {
	res, err := withContext(ctx, func() (any, error) {
		return d.wd.ExecuteScript("return ("+script+");", nil)
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode script result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

func (d *WebDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return withContext(ctx, d.wd.Screenshot)
}

func (d *WebDriver) CurrentURL(ctx context.Context) (string, error) {
	return withContext(ctx, d.wd.CurrentURL)
}

// Close ends the remote session.
func (d *WebDriver) Close() error {
	if err := d.wd.Quit(); err != nil {
		return fmt.Errorf("failed to quit webdriver session: %w", err)
	}
	return nil
}
