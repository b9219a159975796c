// internal/browser/dom/interactor.go
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/browser"
	"github.com/xkilldash9x/intake-cli/internal/config"
)

var (
	// ErrNotFound is returned when no selector of a locator matches.
	ErrNotFound = errors.New("element not found")
	// ErrNotApplied is returned when the element was found but no strategy
	// managed to act on it.
	ErrNotApplied = errors.New("action had no effect")
)

const (
	defaultElementTimeout = 15 * time.Second
	defaultPollInterval   = 250 * time.Millisecond
)

// Interactor drives elements through a Driver, cascading through each
// locator's selectors until one works.
type Interactor struct {
	driver       browser.Driver
	logger       *zap.Logger
	timeout      time.Duration
	pollInterval time.Duration
	settleDelay  time.Duration
}

// NewInteractor creates an interactor with the timing from cfg.
func NewInteractor(d browser.Driver, cfg config.FormConfig, logger *zap.Logger) *Interactor {
	i := &Interactor{
		driver:       d,
		logger:       logger.Named("interactor"),
		timeout:      cfg.ElementTimeout,
		pollInterval: cfg.PollInterval,
		settleDelay:  cfg.SettleDelay,
	}
	if i.timeout <= 0 {
		i.timeout = defaultElementTimeout
	}
	if i.pollInterval <= 0 {
		i.pollInterval = defaultPollInterval
	}
	return i
}

// Present reports whether any selector of loc currently matches.
func (i *Interactor) Present(ctx context.Context, loc Locator) bool {
	_, ok := i.firstPresent(ctx, loc.Selectors)
	return ok
}

func (i *Interactor) firstPresent(ctx context.Context, sels []browser.Selector) (browser.Selector, bool) {
	for _, sel := range sels {
		ok, err := i.driver.Exists(ctx, sel)
		if err != nil {
			i.logger.Debug("Presence check failed.", zap.Stringer("selector", sel), zap.Error(err))
			continue
		}
		if ok {
			return sel, true
		}
	}
	return browser.Selector{}, false
}

// WaitFor polls until one of loc's selectors matches or timeout elapses. A
// zero timeout uses the configured element timeout. The returned locator is
// loc, extended with snapshot-derived selectors when only those matched.
func (i *Interactor) WaitFor(ctx context.Context, loc Locator, timeout time.Duration) (Locator, error) {
	if timeout <= 0 {
		timeout = i.timeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	for {
		if _, ok := i.firstPresent(waitCtx, loc.Selectors); ok {
			return loc, nil
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return loc, ctx.Err()
			}
			return i.fromSnapshot(ctx, loc)
		case <-ticker.C:
		}
	}
}

// fromSnapshot is the last resort for labelled controls: parse the page and
// resolve the label to its control.
func (i *Interactor) fromSnapshot(ctx context.Context, loc Locator) (Locator, error) {
	if loc.Label == "" {
		return loc, fmt.Errorf("%s: %w", loc.Name, ErrNotFound)
	}
	doc, err := Snapshot(ctx, i.driver)
	if err != nil {
		i.logger.Debug("Snapshot lookup failed.", zap.String("locator", loc.Name), zap.Error(err))
		return loc, fmt.Errorf("%s: %w", loc.Name, ErrNotFound)
	}
	extra := LabelTargets(doc, loc.Label)
	if len(extra) == 0 {
		return loc, fmt.Errorf("%s: %w", loc.Name, ErrNotFound)
	}
	i.logger.Debug("Resolved label from page snapshot.", zap.String("locator", loc.Name), zap.Int("candidates", len(extra)))
	loc.Selectors = append(append([]browser.Selector{}, loc.Selectors...), extra...)
	return loc, nil
}

// Click waits for loc and clicks it. Native clicks are tried on every
// matching selector first, then script clicks.
func (i *Interactor) Click(ctx context.Context, loc Locator) error {
	loc, err := i.WaitFor(ctx, loc, 0)
	if err != nil {
		return err
	}

	if i.cascade(ctx, loc, "click", func(opCtx context.Context, sel browser.Selector) error {
		return i.driver.Click(opCtx, sel)
	}) {
		return i.settle(ctx)
	}
	if i.cascade(ctx, loc, "script click", func(opCtx context.Context, sel browser.Selector) error {
		return scriptBool(opCtx, i.driver, browser.ClickScript(sel))
	}) {
		return i.settle(ctx)
	}
	return fmt.Errorf("click %s: %w", loc.Name, ErrNotApplied)
}

// Fill waits for loc, then types value and checks the control took it. The
// final fallback assigns the value with the native setter and fires the
// events Angular listens for.
func (i *Interactor) Fill(ctx context.Context, loc Locator, value string) error {
	loc, err := i.WaitFor(ctx, loc, 0)
	if err != nil {
		return err
	}

	if i.cascade(ctx, loc, "type", func(opCtx context.Context, sel browser.Selector) error {
		if err := i.driver.Type(opCtx, sel, value); err != nil {
			return err
		}
		return i.verifyValue(opCtx, sel, value)
	}) {
		return i.settle(ctx)
	}
	if i.cascade(ctx, loc, "set value", func(opCtx context.Context, sel browser.Selector) error {
		if err := scriptBool(opCtx, i.driver, browser.SetValueScript(sel, value)); err != nil {
			return err
		}
		return i.verifyValue(opCtx, sel, value)
	}) {
		return i.settle(ctx)
	}
	return fmt.Errorf("fill %s: %w", loc.Name, ErrNotApplied)
}

// Select opens trigger (a mat-select or native select) and picks the option
// whose text is option. Native selects are set directly; overlay options
// render after the trigger opens, so they are polled for.
func (i *Interactor) Select(ctx context.Context, trigger Locator, option string) error {
	trigger, err := i.WaitFor(ctx, trigger, 0)
	if err != nil {
		return err
	}

	if i.cascade(ctx, trigger, "native select", func(opCtx context.Context, sel browser.Selector) error {
		return scriptBool(opCtx, i.driver, selectNativeScript(sel, option))
	}) {
		return i.settle(ctx)
	}

	if err := i.Click(ctx, trigger); err != nil {
		return fmt.Errorf("open %s: %w", trigger.Name, err)
	}
	opt := ByOptionText(option)
	if err := i.Click(ctx, opt); err != nil {
		return fmt.Errorf("select %q in %s: %w", option, trigger.Name, err)
	}
	return nil
}

// Check ensures a radio button or checkbox is checked. A control that is
// already checked is left alone, since clicking a checkbox toggles it.
func (i *Interactor) Check(ctx context.Context, loc Locator) error {
	loc, err := i.WaitFor(ctx, loc, 0)
	if err != nil {
		return err
	}

	if i.cascade(ctx, loc, "already checked", func(opCtx context.Context, sel browser.Selector) error {
		return scriptBool(opCtx, i.driver, checkedScript(sel))
	}) {
		return nil
	}
	if i.cascade(ctx, loc, "check", func(opCtx context.Context, sel browser.Selector) error {
		if err := i.driver.Click(opCtx, sel); err != nil {
			return err
		}
		return scriptBool(opCtx, i.driver, checkedScript(sel))
	}) {
		return i.settle(ctx)
	}
	if i.cascade(ctx, loc, "script check", func(opCtx context.Context, sel browser.Selector) error {
		if err := scriptBool(opCtx, i.driver, checkedScript(sel)); err == nil {
			return nil
		}
		return scriptBool(opCtx, i.driver, forceCheckScript(sel))
	}) {
		return i.settle(ctx)
	}
	return fmt.Errorf("check %s: %w", loc.Name, ErrNotApplied)
}

// cascade runs action on each present selector of loc in order and reports
// whether one succeeded. Each attempt is bounded by the element timeout so a
// driver waiting on visibility cannot stall the fallbacks. Failures are
// logged at debug and the next selector is tried.
func (i *Interactor) cascade(ctx context.Context, loc Locator, strategy string, action func(context.Context, browser.Selector) error) bool {
	for n, sel := range loc.Selectors {
		if ctx.Err() != nil {
			return false
		}
		if ok, err := i.driver.Exists(ctx, sel); err != nil || !ok {
			continue
		}
		err := i.attempt(ctx, sel, action)
		if err == nil {
			i.logger.Debug("Strategy succeeded.",
				zap.String("locator", loc.Name),
				zap.String("strategy", strategy),
				zap.Int("selector", n),
			)
			return true
		}
		i.logger.Debug("Strategy failed; trying next selector.",
			zap.String("locator", loc.Name),
			zap.String("strategy", strategy),
			zap.Stringer("selector", sel),
			zap.Error(err),
		)
	}
	return false
}

func (i *Interactor) attempt(ctx context.Context, sel browser.Selector, action func(context.Context, browser.Selector) error) error {
	opCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	return action(opCtx, sel)
}

func (i *Interactor) verifyValue(ctx context.Context, sel browser.Selector, want string) error {
	var got *string
	if err := i.driver.Eval(ctx, browser.ValueScript(sel), &got); err != nil {
		return err
	}
	if got == nil {
		return fmt.Errorf("%s: %w", sel, browser.ErrNoElement)
	}
	if !sameValue(*got, want) {
		return fmt.Errorf("value is %q, want %q: %w", *got, want, ErrNotApplied)
	}
	return nil
}

// sameValue compares two field values ignoring case, surrounding space and
// the separators input masks insert.
func sameValue(got, want string) bool {
	if strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
		return true
	}
	return strings.EqualFold(stripSeparators(got), stripSeparators(want))
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '-', '.', '(', ')':
			return -1
		}
		return r
	}, s)
}

// settle pauses so re-rendering widgets catch up with the last action.
func (i *Interactor) settle(ctx context.Context) error {
	if i.settleDelay <= 0 {
		return nil
	}
	t := time.NewTimer(i.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// scriptBool evaluates a script that reports success as a boolean.
func scriptBool(ctx context.Context, d browser.Driver, script string) error {
	var ok bool
	if err := d.Eval(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return ErrNotApplied
	}
	return nil
}

func selectNativeScript(sel browser.Selector, text string) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el || el.tagName !== 'SELECT') return false;
  const want = %s.trim().toLowerCase();
  const opt = Array.from(el.options).find(o => o.text.trim().toLowerCase() === want);
  if (!opt) return false;
  el.value = opt.value;
  el.dispatchEvent(new Event('change', {bubbles: true}));
  return true;
})()`, browser.ElementExpr(sel), browser.JSString(text))
}

func checkedScript(sel browser.Selector) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  if (el.checked === true || el.getAttribute('aria-checked') === 'true') return true;
  return !!el.closest('.mat-mdc-radio-checked, .mat-radio-checked, .mat-mdc-checkbox-checked, .mat-checkbox-checked');
})()`, browser.ElementExpr(sel))
}

func forceCheckScript(sel browser.Selector) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  const input = el.tagName === 'INPUT' ? el : el.querySelector('input');
  if (!input) return false;
  input.checked = true;
  for (const type of ['click', 'input', 'change']) {
    input.dispatchEvent(new Event(type, {bubbles: true}));
  }
  return input.checked;
})()`, browser.ElementExpr(sel))
}
