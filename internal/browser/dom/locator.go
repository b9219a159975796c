// Package dom finds and drives elements on pages whose markup is unstable:
// auto-generated IDs and Angular Material widgets that re-render. Every
// element is described by a Locator holding several selectors that are tried
// in order.
package dom

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/intake-cli/internal/browser"
)

// Locator names an element and lists the selectors that may find it, most
// specific first. XPath selectors pick the first match only: drivers that
// wait for visibility wait for every node a selector matches.
type Locator struct {
	Name      string
	Selectors []browser.Selector
	// Label, when set, allows a last resort lookup from a parsed snapshot of
	// the page that resolves the label to its control.
	Label string
}

func (l Locator) String() string { return l.Name }

// Merge concatenates the selectors of locs under a new name. The first
// non-empty Label wins.
func Merge(name string, locs ...Locator) Locator {
	out := Locator{Name: name}
	for _, l := range locs {
		out.Selectors = append(out.Selectors, l.Selectors...)
		if out.Label == "" {
			out.Label = l.Label
		}
	}
	return out
}

// ByLabel finds the form control labelled text: a mat-form-field with a
// matching mat-label, a plain label followed by a control, then a script
// that follows htmlFor, aria-labelledby or the enclosing form field.
func ByLabel(text string) Locator {
	lit := xpathLiteral(text)
	return Locator{
		Name:  "label " + text,
		Label: text,
		Selectors: []browser.Selector{
			browser.ByXPath(fmt.Sprintf(`(//mat-form-field[.//mat-label[normalize-space()=%s]]//*[self::input or self::textarea or self::mat-select])[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//label[normalize-space()=%s]/following::*[self::input or self::textarea or self::select][1])[1]`, lit)),
			browser.ByScript(fmt.Sprintf(labelResolverJS, browser.JSString(text))),
		},
	}
}

const labelResolverJS = `(() => {
  const want = %s.trim().toLowerCase();
  const labels = Array.from(document.querySelectorAll('label, mat-label, [id$="-label"]'));
  const label = labels.find(l => (l.textContent || '').replace(/\*/g, '').trim().toLowerCase() === want);
  if (!label) return null;
  const forID = label.getAttribute('for') || (label.closest('label') || {}).htmlFor;
  if (forID && document.getElementById(forID)) return document.getElementById(forID);
  if (label.id) {
    const byAria = document.querySelector('[aria-labelledby~="' + label.id + '"]');
    if (byAria) return byAria;
  }
  const field = label.closest('mat-form-field, .form-group, .field');
  return field ? field.querySelector('input, textarea, select, mat-select') : null;
})()`

// ByControl finds a reactive form control by its formControlName, falling
// back to name and id.
func ByControl(name string) Locator {
	q := cssString(name)
	return Locator{
		Name: "control " + name,
		Selectors: []browser.Selector{
			browser.ByCSS(fmt.Sprintf(`[formcontrolname=%s]`, q)),
			browser.ByCSS(fmt.Sprintf(`[name=%s]`, q)),
			browser.ByCSS(fmt.Sprintf(`[id$=%s]`, q)),
		},
	}
}

// ByButtonText finds a button, link or submit input by its visible text.
func ByButtonText(text string) Locator {
	lit := xpathLiteral(text)
	return Locator{
		Name: "button " + text,
		Selectors: []browser.Selector{
			browser.ByXPath(fmt.Sprintf(`(//button[normalize-space()=%s])[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//button[.//span[normalize-space()=%s]])[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//*[@role='button' or self::a][normalize-space()=%s])[1]`, lit)),
			browser.ByScript(fmt.Sprintf(`Array.from(document.querySelectorAll('button, [role=button], a, input[type=submit], input[type=button]')).find(b => ((b.innerText || b.value || '').trim().toLowerCase() === %s.toLowerCase()) && !b.disabled) || null`, browser.JSString(text))),
		},
	}
}

// ByOptionText finds an option in an open mat-select overlay or a native
// select.
func ByOptionText(text string) Locator {
	lit := xpathLiteral(text)
	return Locator{
		Name: "option " + text,
		Selectors: []browser.Selector{
			browser.ByXPath(fmt.Sprintf(`(//mat-option[normalize-space()=%s])[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//*[@role='option'][.//span[normalize-space()=%s]])[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//option[normalize-space()=%s])[1]`, lit)),
			browser.ByScript(fmt.Sprintf(`Array.from(document.querySelectorAll('mat-option, [role=option], option')).find(o => (o.textContent || '').trim().toLowerCase().startsWith(%s.toLowerCase())) || null`, browser.JSString(text))),
		},
	}
}

// ByRadioLabel finds the radio button labelled text inside the group bound to
// formControlName group.
func ByRadioLabel(group, text string) Locator {
	lit := xpathLiteral(text)
	g := xpathLiteral(group)
	return Locator{
		Name: "radio " + group + "=" + text,
		Selectors: []browser.Selector{
			browser.ByXPath(fmt.Sprintf(`(//mat-radio-group[@formcontrolname=%s]//mat-radio-button[normalize-space()=%s]//input)[1]`, g, lit)),
			browser.ByXPath(fmt.Sprintf(`(//mat-radio-button[normalize-space()=%s]//label)[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//input[@type='radio'][@name=%s][@value=%s])[1]`, g, lit)),
			browser.ByScript(fmt.Sprintf(`Array.from(document.querySelectorAll('input[type=radio]')).find(r => { const l = r.closest('label, mat-radio-button') || document.querySelector('label[for="' + r.id + '"]'); return !!l && l.textContent.trim() === %s; }) || null`, browser.JSString(text))),
		},
	}
}

// ByCheckboxLabel finds a checkbox by the text of its label.
func ByCheckboxLabel(text string) Locator {
	lit := xpathLiteral(text)
	return Locator{
		Name: "checkbox " + text,
		Selectors: []browser.Selector{
			browser.ByXPath(fmt.Sprintf(`(//mat-checkbox[contains(normalize-space(), %s)]//input)[1]`, lit)),
			browser.ByXPath(fmt.Sprintf(`(//label[contains(normalize-space(), %s)]//input[@type='checkbox'])[1]`, lit)),
			browser.ByScript(fmt.Sprintf(`Array.from(document.querySelectorAll('input[type=checkbox]')).find(c => { const l = c.closest('label, mat-checkbox') || document.querySelector('label[for="' + c.id + '"]'); return !!l && l.textContent.includes(%s); }) || null`, browser.JSString(text))),
		},
	}
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		quoted = append(quoted, `"`+p+`"`)
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// cssString quotes s as a CSS attribute value.
func cssString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
