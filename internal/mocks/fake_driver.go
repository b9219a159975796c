// File: internal/mocks/fake_driver.go
package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xkilldash9x/intake-cli/internal/browser"
)

// Element is one node on a FakeDriver page.
type Element struct {
	Value   string
	Checked bool
	Hidden  bool
	// Options makes the element a native select with these option texts.
	Options []string
	// IgnoreKeys drops typed text, like a masked input that rejects
	// synthetic key events. Script assignment still works.
	IgnoreKeys bool
	// Unclickable makes native clicks fail, like an element covered by an
	// overlay. Script clicks still work.
	Unclickable bool
	// Inert makes clicks succeed without checking the element.
	Inert bool
	// Toggle makes clicks flip Checked, like a real checkbox.
	Toggle  bool
	OnClick func(f *FakeDriver)
}

// FakeDriver is a browser.Driver over an in-memory set of elements keyed by
// selector. It understands the script templates of the browser package, so
// script-based strategies behave like they would on a real page.
type FakeDriver struct {
	mu          sync.Mutex
	elements    map[browser.Selector]*Element
	url         string
	markup      string
	navigateErr error

	Clicks      []browser.Selector
	Navigations []string
	Closed      bool
}

var _ browser.Driver = (*FakeDriver)(nil)

// NewFakeDriver returns an empty page.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{elements: make(map[browser.Selector]*Element)}
}

// Add places el on the page under sel and returns it.
func (f *FakeDriver) Add(sel browser.Selector, el *Element) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elements[sel] = el
	return el
}

// Remove takes the element at sel off the page.
func (f *FakeDriver) Remove(sel browser.Selector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.elements, sel)
}

// Element returns the element at sel, or nil.
func (f *FakeDriver) Element(sel browser.Selector) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elements[sel]
}

// SetMarkup sets the HTML returned for document.documentElement.outerHTML.
func (f *FakeDriver) SetMarkup(markup string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markup = markup
}

// SetURL sets the current URL.
func (f *FakeDriver) SetURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
}

// FailNavigation makes every Navigate call return err.
func (f *FakeDriver) FailNavigation(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigateErr = err
}

func (f *FakeDriver) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Navigations = append(f.Navigations, url)
	if f.navigateErr != nil {
		return f.navigateErr
	}
	f.url = url
	return nil
}

func (f *FakeDriver) WaitReady(ctx context.Context) error { return ctx.Err() }

func (f *FakeDriver) Exists(ctx context.Context, sel browser.Selector) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.elements[sel]
	return ok && !el.Hidden, nil
}

func (f *FakeDriver) Click(ctx context.Context, sel browser.Selector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sel.Kind == browser.Script {
		return f.scriptClick(sel)
	}
	f.mu.Lock()
	el, ok := f.elements[sel]
	if !ok || el.Hidden {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", sel, browser.ErrNoElement)
	}
	if el.Unclickable {
		f.mu.Unlock()
		return errors.New("element is not clickable at point")
	}
	f.mu.Unlock()
	f.click(sel, el)
	return nil
}

func (f *FakeDriver) scriptClick(sel browser.Selector) error {
	f.mu.Lock()
	el, ok := f.elements[sel]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", sel, browser.ErrNoElement)
	}
	f.click(sel, el)
	return nil
}

func (f *FakeDriver) click(sel browser.Selector, el *Element) {
	f.mu.Lock()
	f.Clicks = append(f.Clicks, sel)
	switch {
	case el.Toggle:
		el.Checked = !el.Checked
	case !el.Inert:
		el.Checked = true
	}
	onClick := el.OnClick
	f.mu.Unlock()
	if onClick != nil {
		onClick(f)
	}
}

func (f *FakeDriver) Type(ctx context.Context, sel browser.Selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.elements[sel]
	if !ok || el.Hidden {
		return fmt.Errorf("%s: %w", sel, browser.ErrNoElement)
	}
	if sel.Kind == browser.Script || !el.IgnoreKeys {
		el.Value = text
	} else {
		el.Value = ""
	}
	return nil
}

// Eval recognizes the browser package's script templates by the element
// expression they embed; unknown scripts evaluate to null.
func (f *FakeDriver) Eval(ctx context.Context, script string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := f.evaluate(script)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *FakeDriver) evaluate(script string) (any, error) {
	switch script {
	case browser.ReadyStateScript:
		return "complete", nil
	case "document.documentElement.outerHTML":
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.markup, nil
	}

	sel, el := f.target(script)
	switch {
	case strings.Contains(script, "getClientRects"):
		return el != nil && !el.Hidden, nil
	case el == nil:
		if strings.Contains(script, "return null") {
			return nil, nil
		}
		return false, nil
	case strings.Contains(script, "el.click()"):
		f.click(sel, el)
		return true, nil
	case strings.Contains(script, "desc.set.call"):
		value, err := literalAfter(script, "desc.set.call(el, ")
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		el.Value = value
		f.mu.Unlock()
		return true, nil
	case strings.Contains(script, "el.tagName !== 'SELECT'"):
		want, err := literalAfter(script, "const want = ")
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, o := range el.Options {
			if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(want)) {
				el.Value = o
				return true, nil
			}
		}
		return false, nil
	case strings.Contains(script, "input.checked = true"):
		f.mu.Lock()
		el.Checked = true
		f.mu.Unlock()
		return true, nil
	case strings.Contains(script, "aria-checked"):
		f.mu.Lock()
		defer f.mu.Unlock()
		return el.Checked, nil
	case strings.Contains(script, "'value' in el"):
		f.mu.Lock()
		defer f.mu.Unlock()
		return el.Value, nil
	}
	return nil, nil
}

// target finds the element whose expression the script embeds. The longest
// match wins so nested expressions resolve to the most specific selector.
func (f *FakeDriver) target(script string) (browser.Selector, *Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var (
		best    browser.Selector
		bestEl  *Element
		bestLen int
	)
	for sel, el := range f.elements {
		expr := browser.ElementExpr(sel)
		if len(expr) > bestLen && strings.Contains(script, "const el = "+expr+";") {
			best, bestEl, bestLen = sel, el, len(expr)
		}
	}
	return best, bestEl
}

// literalAfter decodes the JSON string literal that follows marker.
func literalAfter(script, marker string) (string, error) {
	idx := strings.Index(script, marker)
	if idx < 0 {
		return "", fmt.Errorf("marker %q not in script", marker)
	}
	var s string
	if err := json.NewDecoder(strings.NewReader(script[idx+len(marker):])).Decode(&s); err != nil {
		return "", fmt.Errorf("failed to decode literal after %q: %w", marker, err)
	}
	return s, nil
}

func (f *FakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte("\x89PNG fake"), nil
}

func (f *FakeDriver) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, ctx.Err()
}

func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
