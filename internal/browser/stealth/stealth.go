// internal/browser/stealth/stealth.go
package stealth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Identity defines the browser characteristics to present to the form.
type Identity struct {
	UserAgent string
	Platform  string
	Languages []string
	Timezone  string
	Locale    string
}

// DefaultIdentity is a desktop Chrome on Windows.
var DefaultIdentity = Identity{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"en-GB", "en"},
	Timezone:  "Europe/London",
	Locale:    "en-GB",
}

// evasionsTemplate hides the automation markers the form's bot checks read.
// %s receives the platform and languages as JS literals.
const evasionsTemplate = `(() => {
  const define = (obj, prop, value) => {
    try { Object.defineProperty(obj, prop, { get: () => value, configurable: true }); } catch (e) {}
  };
  define(Navigator.prototype, 'webdriver', undefined);
  define(Navigator.prototype, 'platform', %s);
  define(Navigator.prototype, 'languages', Object.freeze(%s));
  if (!window.chrome) { window.chrome = { runtime: {} }; }
  const query = window.navigator.permissions && window.navigator.permissions.query;
  if (query) {
    window.navigator.permissions.query = (p) =>
      p && p.name === 'notifications'
        ? Promise.resolve({ state: Notification.permission })
        : query.call(window.navigator.permissions, p);
  }
})();`

// EvasionsScript renders the evasions for id.
func EvasionsScript(id Identity) string {
	langs := make([]string, len(id.Languages))
	for i, l := range id.Languages {
		langs[i] = jsQuote(l)
	}
	return fmt.Sprintf(evasionsTemplate, jsQuote(id.Platform), "["+strings.Join(langs, ", ")+"]")
}

// AcceptLanguage builds the Accept-Language header matching the languages
// list, with descending quality values.
func AcceptLanguage(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	parts := []string{langs[0]}
	q := 9
	for _, l := range langs[1:] {
		parts = append(parts, fmt.Sprintf("%s;q=0.%d", l, q))
		if q > 1 {
			q--
		}
	}
	return strings.Join(parts, ",")
}

func jsQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// Apply constructs the CDP actions that make an automated Chrome look like a
// user operated one. They must run before the first navigation.
func Apply(id Identity, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser stealth identity",
		zap.String("userAgent", id.UserAgent),
		zap.String("platform", id.Platform),
	)

	script := EvasionsScript(id)
	tasks := chromedp.Tasks{
		emulation.SetUserAgentOverride(id.UserAgent).
			WithPlatform(id.Platform).
			WithAcceptLanguage(AcceptLanguage(id.Languages)),
		// AddScriptToEvaluateOnNewDocument returns an identifier as well, so it
		// needs an ActionFunc wrapper.
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}
	if id.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(id.Timezone))
	}
	if id.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(id.Locale))
	}
	if header := AcceptLanguage(id.Languages); header != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": header}))
	}
	return tasks
}
