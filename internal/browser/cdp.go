// internal/browser/cdp.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/browser/stealth"
	"github.com/xkilldash9x/intake-cli/internal/config"
)

const defaultStartupTimeout = 60 * time.Second

// CDPDriver drives Chrome or Chromium over the DevTools protocol with chromedp.
type CDPDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

var _ Driver = (*CDPDriver)(nil)

// NewCDPDriver launches a browser and opens one tab.
func NewCDPDriver(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*CDPDriver, error) {
	log := logger.Named("cdp")

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), allocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...)) }),
		chromedp.WithErrorf(func(format string, args ...any) { log.Debug(fmt.Sprintf(format, args...)) }),
	)

	d := &CDPDriver{ctx: tabCtx, cancel: tabCancel, allocCancel: allocCancel, logger: log}

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}

	// The first Run allocates the browser and binds it to tabCtx, so it must
	// not carry an operation deadline. The timeout is enforced from outside.
	started := make(chan error, 1)
	startup := chromedp.Tasks{viewportAction(cfg)}
	if cfg.Stealth {
		startup = append(startup, stealth.Apply(stealth.DefaultIdentity, log))
	}
	go func() {
		started <- chromedp.Run(tabCtx, startup)
	}()

	select {
	case err := <-started:
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-time.After(timeout):
		d.Close()
		return nil, fmt.Errorf("browser did not start within %v", timeout)
	case <-ctx.Done():
		d.Close()
		return nil, ctx.Err()
	}

	log.Debug("Browser started.")
	return d, nil
}

// allocatorOptions builds the exec allocator flags for cfg.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if w, h := viewport(cfg); w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}
	return opts
}

// allocatorFlags returns the command line flags layered over chromedp's
// defaults.
func allocatorFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		"headless": cfg.Headless,
	}
	if cfg.IgnoreTLSErrors {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}
	if cfg.Stealth {
		flags["disable-blink-features"] = "AutomationControlled"
		flags["enable-automation"] = false
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			flags[key] = value
		} else {
			flags[key] = true
		}
	}
	return flags
}

func viewport(cfg config.BrowserConfig) (int, int) {
	return cfg.Viewport["width"], cfg.Viewport["height"]
}

func viewportAction(cfg config.BrowserConfig) chromedp.Action {
	w, h := viewport(cfg)
	if w <= 0 || h <= 0 {
		return chromedp.ActionFunc(func(context.Context) error { return nil })
	}
	return chromedp.EmulateViewport(int64(w), int64(h))
}

// run executes actions under the tab context, canceled early if ctx is.
func (d *CDPDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

func by(sel Selector) chromedp.QueryOption {
	if sel.Kind == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (d *CDPDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (d *CDPDriver) WaitReady(ctx context.Context) error {
	return waitReadyState(ctx, d)
}

func (d *CDPDriver) Exists(ctx context.Context, sel Selector) (bool, error) {
	return evalExists(ctx, d, sel)
}

func (d *CDPDriver) Click(ctx context.Context, sel Selector) error {
	if sel.Kind == Script {
		return evalClick(ctx, d, sel)
	}
	return d.run(ctx, chromedp.Click(sel.Expr, by(sel), chromedp.NodeVisible))
}

func (d *CDPDriver) Type(ctx context.Context, sel Selector, text string) error {
	if sel.Kind == Script {
		return evalSetValue(ctx, d, sel, text)
	}
	return d.run(ctx,
		chromedp.Clear(sel.Expr, by(sel), chromedp.NodeVisible),
		chromedp.SendKeys(sel.Expr, text, by(sel), chromedp.NodeVisible),
	)
}

func (d *CDPDriver) Eval(ctx context.Context, script string, out any) error {
	return d.run(ctx, chromedp.Evaluate(script, out))
}

func (d *CDPDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	}))
	return buf, err
}

func (d *CDPDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, chromedp.Location(&url))
	return url, err
}

// Close shuts the browser down and releases the allocator.
func (d *CDPDriver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.allocCancel()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
