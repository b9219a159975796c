// internal/browser/stealth/stealth_test.go
package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "", AcceptLanguage(nil))
	assert.Equal(t, "en-GB", AcceptLanguage([]string{"en-GB"}))
	assert.Equal(t, "en-GB,en;q=0.9", AcceptLanguage([]string{"en-GB", "en"}))
	assert.Equal(t, "de-DE,de;q=0.9,en;q=0.8", AcceptLanguage([]string{"de-DE", "de", "en"}))
}

func TestEvasionsScript(t *testing.T) {
	script := EvasionsScript(Identity{Platform: "Win32", Languages: []string{"en-GB", "en"}})

	assert.Contains(t, script, "'webdriver', undefined")
	assert.Contains(t, script, "'platform', 'Win32'")
	assert.Contains(t, script, "Object.freeze(['en-GB', 'en'])")

	quoted := EvasionsScript(Identity{Platform: `it's`, Languages: nil})
	assert.Contains(t, quoted, `'it\'s'`)
	assert.Contains(t, quoted, "Object.freeze([])")
}

func TestApply(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	tasks := Apply(DefaultIdentity, zap.New(core))
	assert.Len(t, tasks, 5, "user agent, evasions, timezone, locale and headers")
	assert.Equal(t, 1, logs.FilterMessage("Applying browser stealth identity").Len())

	minimal := Apply(Identity{UserAgent: "test-agent"}, zap.NewNop())
	assert.Len(t, minimal, 2, "optional overrides are skipped when unset")
}
