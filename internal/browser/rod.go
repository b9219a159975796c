// internal/browser/rod.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

// RodDriver drives Chromium through go-rod, optionally with the stealth
// evasions injected into the page.
type RodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger
}

var _ Driver = (*RodDriver)(nil)

// NewRodDriver launches a browser and opens a blank page.
func NewRodDriver(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*RodDriver, error) {
	log := logger.Named("rod")

	// The launcher context owns the browser process, so it must not carry the
	// caller's cancellation.
	l := launcher.New().Context(Detach(ctx)).Headless(cfg.Headless)
	if cfg.ExecPath != "" {
		l = l.Bin(cfg.ExecPath)
	}
	if cfg.IgnoreTLSErrors {
		l = l.Set("ignore-certificate-errors")
	}
	if w, h := viewport(cfg); w > 0 && h > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", w, h))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			l = l.Set(flags.Flag(key), value)
		} else {
			l = l.Set(flags.Flag(key))
		}
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var p *rod.Page
	if cfg.Stealth {
		p, err = stealth.Page(b)
	} else {
		p, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if w, h := viewport(cfg); w > 0 && h > 0 {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: w, Height: h}); err != nil {
			log.Debug("Failed to set viewport.", zap.Error(err))
		}
	}

	log.Debug("Browser started.", zap.String("control_url", u), zap.Bool("stealth", cfg.Stealth))
	return &RodDriver{launcher: l, browser: b, page: p, logger: log}, nil
}

func (d *RodDriver) element(ctx context.Context, sel Selector) (*rod.Element, error) {
	p := d.page.Context(ctx)
	if sel.Kind == XPath {
		return p.ElementX(sel.Expr)
	}
	return p.Element(sel.Expr)
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	if err := d.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (d *RodDriver) WaitReady(ctx context.Context) error {
	if err := d.page.Context(ctx).WaitLoad(); err != nil {
		return err
	}
	return waitReadyState(ctx, d)
}

func (d *RodDriver) Exists(ctx context.Context, sel Selector) (bool, error) {
	return evalExists(ctx, d, sel)
}

func (d *RodDriver) Click(ctx context.Context, sel Selector) error {
	if sel.Kind == Script {
		return evalClick(ctx, d, sel)
	}
	el, err := d.element(ctx, sel)
	if err != nil {
		return fmt.Errorf("%s: %w", sel, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *RodDriver) Type(ctx context.Context, sel Selector, text string) error {
	if sel.Kind == Script {
		return evalSetValue(ctx, d, sel, text)
	}
	el, err := d.element(ctx, sel)
	if err != nil {
		return fmt.Errorf("%s: %w", sel, err)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(text)
}

func (d *RodDriver) Eval(ctx context.Context, script string, out any) error {
	res, err := d.page.Context(ctx).Eval("() => (" + script + ")")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

func (d *RodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (d *RodDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Close closes the browser and removes the launcher's temporary profile.
func (d *RodDriver) Close() error {
	err := d.browser.Close()
	d.launcher.Kill()
	d.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
