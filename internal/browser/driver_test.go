// internal/browser/driver_test.go
package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.BrowserConfig
		want    string
		wantErr bool
	}{
		{"chrome defaults to cdp", config.BrowserConfig{Name: "chrome"}, BackendCDP, false},
		{"chromium case insensitive", config.BrowserConfig{Name: " Chromium "}, BackendCDP, false},
		{"firefox defaults to webdriver", config.BrowserConfig{Name: "firefox"}, BackendWebDriver, false},
		{"edge defaults to webdriver", config.BrowserConfig{Name: "edge"}, BackendWebDriver, false},
		{"safari defaults to webdriver", config.BrowserConfig{Name: "safari"}, BackendWebDriver, false},
		{"forced rod", config.BrowserConfig{Name: "chrome", Driver: "rod"}, BackendRod, false},
		{"forced webdriver for chrome", config.BrowserConfig{Name: "chrome", Driver: "WebDriver"}, BackendWebDriver, false},
		{"firefox over cdp", config.BrowserConfig{Name: "firefox", Driver: "cdp"}, "", true},
		{"unknown browser", config.BrowserConfig{Name: "netscape"}, "", true},
		{"unknown driver", config.BrowserConfig{Name: "chrome", Driver: "puppeteer"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBackend(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBrowser)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_UnknownBrowser(t *testing.T) {
	_, err := Open(context.Background(), config.BrowserConfig{Name: "lynx"}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrUnknownBrowser)
}

func TestAllocatorFlags(t *testing.T) {
	flags := allocatorFlags(config.BrowserConfig{
		Headless:        true,
		IgnoreTLSErrors: true,
		Stealth:         true,
		Args:            []string{"--lang=en-GB", "disable-dev-shm-usage"},
	})

	assert.Equal(t, true, flags["headless"])
	assert.Equal(t, true, flags["ignore-certificate-errors"])
	assert.Equal(t, "AutomationControlled", flags["disable-blink-features"])
	assert.Equal(t, false, flags["enable-automation"])
	assert.Equal(t, "en-GB", flags["lang"])
	assert.Equal(t, true, flags["disable-dev-shm-usage"])

	plain := allocatorFlags(config.BrowserConfig{})
	assert.Equal(t, map[string]any{"headless": false}, plain)
}

func TestCapabilities(t *testing.T) {
	t.Run("firefox", func(t *testing.T) {
		caps := capabilities(config.BrowserConfig{Name: "firefox", Headless: true, ExecPath: "/opt/firefox/firefox"})
		assert.Equal(t, "firefox", caps["browserName"])
		opts, ok := caps["moz:firefoxOptions"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []string{"-headless"}, opts["args"])
		assert.Equal(t, "/opt/firefox/firefox", opts["binary"])
	})

	t.Run("edge", func(t *testing.T) {
		caps := capabilities(config.BrowserConfig{Name: "edge", IgnoreTLSErrors: true})
		assert.Equal(t, "MicrosoftEdge", caps["browserName"])
		assert.Equal(t, true, caps["acceptInsecureCerts"])
		assert.Contains(t, caps, "ms:edgeOptions")
	})

	t.Run("safari has no vendor options", func(t *testing.T) {
		caps := capabilities(config.BrowserConfig{Name: "safari"})
		assert.Equal(t, selenium.Capabilities{"browserName": "safari"}, caps)
	})
}

// fakeRemote answers ExecuteScript and records navigation; every other
// WebDriver method panics through the nil embedded interface.
type fakeRemote struct {
	selenium.WebDriver
	result  any
	err     error
	scripts []string
	visited []string
	block   chan struct{}
}

func (f *fakeRemote) ExecuteScript(script string, _ []interface{}) (interface{}, error) {
	if f.block != nil {
		<-f.block
	}
	f.scripts = append(f.scripts, script)
	return f.result, f.err
}

func (f *fakeRemote) Get(url string) error {
	f.visited = append(f.visited, url)
	return nil
}

func TestWebDriverEval(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes results", func(t *testing.T) {
		fake := &fakeRemote{result: map[string]any{"count": float64(3)}}
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}

		var out struct{ Count int }
		require.NoError(t, d.Eval(ctx, "({count: 3})", &out))
		assert.Equal(t, 3, out.Count)
		assert.Equal(t, []string{"return (({count: 3}));"}, fake.scripts)
	})

	t.Run("exists", func(t *testing.T) {
		fake := &fakeRemote{result: true}
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}

		ok, err := d.Exists(ctx, ByCSS("#start"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("script click on missing element", func(t *testing.T) {
		fake := &fakeRemote{result: false}
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}

		err := d.Click(ctx, ByScript("null"))
		assert.ErrorIs(t, err, ErrNoElement)
	})

	t.Run("errors pass through", func(t *testing.T) {
		fake := &fakeRemote{err: errors.New("no such window")}
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}
		assert.EqualError(t, d.Eval(ctx, "1", nil), "no such window")
	})

	t.Run("honours context", func(t *testing.T) {
		fake := &fakeRemote{block: make(chan struct{})}
		defer close(fake.block)
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, d.Eval(ctx, "1", nil), context.DeadlineExceeded)
	})

	t.Run("waits for ready state", func(t *testing.T) {
		fake := &fakeRemote{result: "complete"}
		d := &WebDriver{wd: fake, logger: zaptest.NewLogger(t)}
		require.NoError(t, d.WaitReady(ctx))
		require.NoError(t, d.Navigate(ctx, "https://intake.example.test/"))
		assert.Equal(t, []string{"https://intake.example.test/"}, fake.visited)
	})
}
