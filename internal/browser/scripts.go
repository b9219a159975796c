// internal/browser/scripts.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSString renders s as a JavaScript string literal.
func JSString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// strings always marshal
		panic(err)
	}
	return string(b)
}

// ElementExpr returns a JavaScript expression evaluating to the element sel
// matches, or null.
func ElementExpr(sel Selector) string {
	switch sel.Kind {
	case XPath:
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", JSString(sel.Expr))
	case CSS:
		return fmt.Sprintf("document.querySelector(%s)", JSString(sel.Expr))
	default:
		return "(" + sel.Expr + ")"
	}
}

// ExistsScript evaluates to true when sel matches an element with a layout box.
func ExistsScript(sel Selector) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  return !!el && el.getClientRects().length > 0;
})()`, ElementExpr(sel))
}

// ClickScript scrolls the element into view and clicks it. It evaluates to
// false when nothing matches.
func ClickScript(sel Selector) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  el.scrollIntoView({block: 'center'});
  el.click();
  return true;
})()`, ElementExpr(sel))
}

// SetValueScript assigns value through the prototype's native value setter
// and dispatches input, change and blur so framework bindings (Angular
// reactive forms in particular) see the change. It evaluates to false when
// nothing matches.
func SetValueScript(sel Selector, value string) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return false;
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype
    : el instanceof HTMLSelectElement ? HTMLSelectElement.prototype
    : HTMLInputElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, 'value');
  el.focus();
  if (desc && desc.set) { desc.set.call(el, %s); } else { el.value = %s; }
  for (const type of ['input', 'change', 'blur']) {
    el.dispatchEvent(new Event(type, {bubbles: true}));
  }
  return true;
})()`, ElementExpr(sel), JSString(value), JSString(value))
}

// ValueScript evaluates to the element's value, or its trimmed text when it
// has no value property. Missing elements yield null.
func ValueScript(sel Selector) string {
	return fmt.Sprintf(`(() => {
  const el = %s;
  if (!el) return null;
  if ('value' in el && typeof el.value === 'string') return el.value;
  return (el.textContent || '').trim();
})()`, ElementExpr(sel))
}

// ReadyStateScript evaluates to document.readyState.
const ReadyStateScript = `document.readyState`

// evaluator is the part of a Driver the script helpers need.
type evaluator interface {
	Eval(ctx context.Context, script string, out any) error
}

func evalExists(ctx context.Context, ev evaluator, sel Selector) (bool, error) {
	var ok bool
	if err := ev.Eval(ctx, ExistsScript(sel), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func evalClick(ctx context.Context, ev evaluator, sel Selector) error {
	var ok bool
	if err := ev.Eval(ctx, ClickScript(sel), &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", sel, ErrNoElement)
	}
	return nil
}

func evalSetValue(ctx context.Context, ev evaluator, sel Selector, value string) error {
	var ok bool
	if err := ev.Eval(ctx, SetValueScript(sel, value), &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", sel, ErrNoElement)
	}
	return nil
}
