// internal/intake/filler.go
package intake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/browser"
	"github.com/xkilldash9x/intake-cli/internal/browser/dom"
	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

// ErrPageAborted is returned when a page cannot be completed: a required
// field failed or the page's Next button could not be clicked.
var ErrPageAborted = errors.New("page aborted")

const (
	defaultNavigationTimeout = 90 * time.Second
	cookieBannerWait         = 2 * time.Second
)

// FieldFailure records a field that could not be filled.
type FieldFailure struct {
	Field  string
	Reason string
}

// PageResult is the outcome of one page.
type PageResult struct {
	Name      string
	Filled    []string
	Failed    []FieldFailure
	Completed bool
}

// Report is the outcome of a run through the form.
type Report struct {
	Pages      []PageResult
	FinalURL   string
	Submitted  bool
	Completed  bool
	Screenshot string
}

// FailedFields counts failed fields across all pages.
func (r Report) FailedFields() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Failed)
	}
	return n
}

// Filler walks the form pages with one driver.
type Filler struct {
	driver     browser.Driver
	interactor *dom.Interactor
	cfg        config.FormConfig
	pages      []Page
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Filler.
type Option func(*Filler)

// WithPages replaces the default page definitions.
func WithPages(pages []Page) Option {
	return func(f *Filler) { f.pages = pages }
}

// WithClock sets the clock used to name screenshots.
func WithClock(now func() time.Time) Option {
	return func(f *Filler) { f.now = now }
}

// NewFiller creates a filler over d.
func NewFiller(d browser.Driver, cfg config.FormConfig, logger *zap.Logger, opts ...Option) *Filler {
	f := &Filler{
		driver:     d,
		interactor: dom.NewInteractor(d, cfg, logger),
		cfg:        cfg,
		pages:      DefaultPages(),
		logger:     logger.Named("filler"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cfg.DateLayout == "" {
		f.cfg.DateLayout = "02/01/2006"
	}
	return f
}

// Run opens the form and fills every page with p. Field failures are logged
// and recorded; a page-level failure stops the run with ErrPageAborted. The
// report is returned in every case.
func (f *Filler) Run(ctx context.Context, p persona.Profile) (Report, error) {
	var report Report
	logger := f.logger.With(zap.String("profile_id", p.ID))

	if err := f.open(ctx); err != nil {
		return report, err
	}
	f.dismissCookieBanner(ctx, logger)

	for _, page := range f.pages {
		pageLogger := logger.With(zap.String("page", page.Name))
		pageLogger.Info("Filling page.")

		result, err := f.fillPage(ctx, page, p, pageLogger)
		report.Pages = append(report.Pages, result)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			pageLogger.Error("Page aborted.", zap.Error(err))
			report.Screenshot = f.saveScreenshot(ctx, p, page.Name, pageLogger)
			report.FinalURL = f.currentURL(ctx)
			return report, fmt.Errorf("%w: %s: %w", ErrPageAborted, page.Name, err)
		}
		if page.Final && f.cfg.Submit {
			report.Submitted = true
		}
		pageLogger.Info("Page completed.",
			zap.Int("filled", len(result.Filled)),
			zap.Int("failed", len(result.Failed)),
		)
	}

	report.Completed = true
	report.FinalURL = f.currentURL(ctx)
	logger.Info("Form run finished.",
		zap.Bool("submitted", report.Submitted),
		zap.Int("failed_fields", report.FailedFields()),
		zap.String("final_url", report.FinalURL),
	)
	return report, nil
}

func (f *Filler) open(ctx context.Context) error {
	timeout := f.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := f.driver.Navigate(navCtx, f.cfg.URL); err != nil {
		return fmt.Errorf("failed to open form: %w", err)
	}
	if err := f.driver.WaitReady(navCtx); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("form did not load within %v: %w", timeout, err)
		}
		return fmt.Errorf("form did not load: %w", err)
	}
	return sleep(ctx, f.cfg.PageLoadWait)
}

func (f *Filler) dismissCookieBanner(ctx context.Context, logger *zap.Logger) {
	wait := cookieBannerWait
	if f.cfg.ElementTimeout > 0 && f.cfg.ElementTimeout < wait {
		wait = f.cfg.ElementTimeout
	}
	if _, err := f.interactor.WaitFor(ctx, CookieBanner, wait); err != nil {
		return
	}
	if err := f.interactor.Click(ctx, CookieBanner); err != nil {
		logger.Warn("Cookie banner present but could not be dismissed.", zap.Error(err))
		return
	}
	logger.Debug("Cookie banner dismissed.")
}

func (f *Filler) fillPage(ctx context.Context, page Page, p persona.Profile, logger *zap.Logger) (PageResult, error) {
	result := PageResult{Name: page.Name}

	if len(page.Ready.Selectors) > 0 {
		if _, err := f.interactor.WaitFor(ctx, page.Ready, 0); err != nil {
			return result, fmt.Errorf("page did not render: %w", err)
		}
	}

	for _, field := range page.Fields {
		if err := f.fillField(ctx, field, p); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, FieldFailure{Field: field.Name, Reason: err.Error()})
			if field.Required {
				return result, fmt.Errorf("required field %q: %w", field.Name, err)
			}
			logger.Warn("Field not filled; continuing.", zap.String("field", field.Name), zap.Error(err))
			continue
		}
		result.Filled = append(result.Filled, field.Name)
		logger.Debug("Field filled.", zap.String("field", field.Name), zap.Stringer("kind", field.Kind))
	}

	if page.Final && !f.cfg.Submit {
		logger.Info("Submission disabled; stopping at the final page.")
		result.Completed = true
		return result, nil
	}
	if err := f.interactor.Click(ctx, page.Next); err != nil {
		return result, fmt.Errorf("next button: %w", err)
	}
	result.Completed = true
	return result, nil
}

func (f *Filler) fillField(ctx context.Context, field Field, p persona.Profile) error {
	switch field.Kind {
	case Text:
		return f.interactor.Fill(ctx, field.Locator, field.Value(p))
	case Date:
		return f.interactor.Fill(ctx, field.Locator, field.Date(p).Format(f.cfg.DateLayout))
	case Select:
		return f.interactor.Select(ctx, field.Locator, field.Value(p))
	case Radio:
		return f.interactor.Check(ctx, dom.ByRadioLabel(field.Group, field.Value(p)))
	case Checkbox:
		return f.interactor.Check(ctx, field.Locator)
	default:
		return fmt.Errorf("unsupported field kind %v", field.Kind)
	}
}

// saveScreenshot writes a PNG of the page to the artifacts directory and
// returns its path, or "" when disabled or failed.
func (f *Filler) saveScreenshot(ctx context.Context, p persona.Profile, page string, logger *zap.Logger) string {
	if f.cfg.ArtifactsDir == "" {
		return ""
	}
	buf, err := f.driver.Screenshot(ctx)
	if err != nil {
		logger.Warn("Failed to capture screenshot.", zap.Error(err))
		return ""
	}
	if err := os.MkdirAll(f.cfg.ArtifactsDir, 0o755); err != nil {
		logger.Warn("Failed to create artifacts directory.", zap.Error(err))
		return ""
	}
	name := fmt.Sprintf("%s-%s-%s.png", p.ID, slug(page), f.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(f.cfg.ArtifactsDir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		logger.Warn("Failed to write screenshot.", zap.Error(err))
		return ""
	}
	logger.Info("Screenshot saved.", zap.String("path", path))
	return path
}

func (f *Filler) currentURL(ctx context.Context) string {
	url, err := f.driver.CurrentURL(ctx)
	if err != nil {
		f.logger.Debug("Failed to read current URL.", zap.Error(err))
	}
	return url
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
