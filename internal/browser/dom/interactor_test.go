package dom_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/intake-cli/internal/browser"
	"github.com/xkilldash9x/intake-cli/internal/browser/dom"
	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/mocks"
)

func newInteractor(t *testing.T, d browser.Driver) *dom.Interactor {
	t.Helper()
	return dom.NewInteractor(d, config.FormConfig{
		ElementTimeout: 100 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	}, zaptest.NewLogger(t))
}

// stalledClickDriver blocks native clicks until their context ends, like a
// visibility wait on a node that never becomes visible.
type stalledClickDriver struct {
	*mocks.FakeDriver
	stalled int
}

func (d *stalledClickDriver) Click(ctx context.Context, sel browser.Selector) error {
	if sel.Kind == browser.Script {
		return d.FakeDriver.Click(ctx, sel)
	}
	d.stalled++
	<-ctx.Done()
	return ctx.Err()
}

func TestInteractorClick(t *testing.T) {
	ctx := context.Background()

	t.Run("native click on first present selector", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByButtonText("Next")
		fake.Add(loc.Selectors[1], &mocks.Element{})

		require.NoError(t, newInteractor(t, fake).Click(ctx, loc))
		assert.Equal(t, []browser.Selector{loc.Selectors[1]}, fake.Clicks)
	})

	t.Run("falls back to script click", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByButtonText("Next")
		fake.Add(loc.Selectors[0], &mocks.Element{Unclickable: true})

		require.NoError(t, newInteractor(t, fake).Click(ctx, loc))
		assert.Equal(t, []browser.Selector{loc.Selectors[0]}, fake.Clicks, "the script click reaches the covered element")
	})

	t.Run("missing element", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		err := newInteractor(t, fake).Click(ctx, dom.ByButtonText("Next"))
		assert.ErrorIs(t, err, dom.ErrNotFound)
		assert.Contains(t, err.Error(), "button Next")
	})

	t.Run("waits for late elements", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByButtonText("Continue")
		go func() {
			time.Sleep(30 * time.Millisecond)
			fake.Add(loc.Selectors[0], &mocks.Element{})
		}()

		require.NoError(t, newInteractor(t, fake).Click(ctx, loc))
	})

	t.Run("native click that never returns falls back to script click", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByButtonText("Continue")
		fake.Add(loc.Selectors[0], &mocks.Element{})
		d := &stalledClickDriver{FakeDriver: fake}

		done := make(chan error, 1)
		go func() { done <- newInteractor(t, d).Click(ctx, loc) }()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("click did not fall back after the element timeout")
		}
		assert.Equal(t, 1, d.stalled)
		assert.Equal(t, []browser.Selector{loc.Selectors[0]}, fake.Clicks, "only the script click lands")
	})

	t.Run("respects cancellation", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := newInteractor(t, fake).Click(cctx, dom.ByButtonText("Next"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInteractorFill(t *testing.T) {
	ctx := context.Background()

	t.Run("types into the control", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByControl("surname")
		el := fake.Add(loc.Selectors[0], &mocks.Element{Value: "old"})

		require.NoError(t, newInteractor(t, fake).Fill(ctx, loc, "O'Brien"))
		assert.Equal(t, "O'Brien", el.Value)
	})

	t.Run("native setter when keys are ignored", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByLabel("Date of birth")
		el := fake.Add(loc.Selectors[0], &mocks.Element{IgnoreKeys: true})

		require.NoError(t, newInteractor(t, fake).Fill(ctx, loc, "14/03/1990"))
		assert.Equal(t, "14/03/1990", el.Value)
	})

	t.Run("snapshot resolves an unlabelled control", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		fake.SetMarkup(`<html><body><mat-form-field><mat-label>Place of birth</mat-label><input id="mat-input-3"></mat-form-field></body></html>`)
		target := browser.ByXPath(`//*[@id="mat-input-3"]`)
		el := fake.Add(target, &mocks.Element{})

		require.NoError(t, newInteractor(t, fake).Fill(ctx, dom.ByLabel("Place of birth"), "Springfield"))
		assert.Equal(t, "Springfield", el.Value)
	})

	t.Run("not found", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		err := newInteractor(t, fake).Fill(ctx, dom.ByControl("surname"), "x")
		assert.ErrorIs(t, err, dom.ErrNotFound)
	})
}

func TestInteractorSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("mat-select overlay", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		trigger := dom.ByControl("eyeColour")
		option := dom.ByOptionText("Hazel")
		fake.Add(trigger.Selectors[0], &mocks.Element{
			Inert: true,
			OnClick: func(f *mocks.FakeDriver) {
				f.Add(option.Selectors[0], &mocks.Element{})
			},
		})

		require.NoError(t, newInteractor(t, fake).Select(ctx, trigger, "Hazel"))
		assert.Equal(t, []browser.Selector{trigger.Selectors[0], option.Selectors[0]}, fake.Clicks)
	})

	t.Run("native select", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		trigger := dom.ByControl("sex")
		el := fake.Add(trigger.Selectors[1], &mocks.Element{Options: []string{"Female", "Male"}})

		require.NoError(t, newInteractor(t, fake).Select(ctx, trigger, "male"))
		assert.Equal(t, "Male", el.Value)
		assert.Empty(t, fake.Clicks)
	})

	t.Run("option never appears", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		trigger := dom.ByControl("eyeColour")
		fake.Add(trigger.Selectors[0], &mocks.Element{Inert: true})

		err := newInteractor(t, fake).Select(ctx, trigger, "Violet")
		assert.ErrorIs(t, err, dom.ErrNotFound)
	})
}

func TestInteractorCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("click checks", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByRadioLabel("sex", "Female")
		el := fake.Add(loc.Selectors[0], &mocks.Element{})

		require.NoError(t, newInteractor(t, fake).Check(ctx, loc))
		assert.True(t, el.Checked)
	})

	t.Run("already checked is not clicked", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByCheckboxLabel("I declare")
		el := fake.Add(loc.Selectors[0], &mocks.Element{Checked: true, Toggle: true})

		require.NoError(t, newInteractor(t, fake).Check(ctx, loc))
		assert.True(t, el.Checked)
		assert.Empty(t, fake.Clicks)
	})

	t.Run("toggling checkbox is clicked once", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByCheckboxLabel("I declare")
		el := fake.Add(loc.Selectors[0], &mocks.Element{Toggle: true})

		require.NoError(t, newInteractor(t, fake).Check(ctx, loc))
		assert.True(t, el.Checked)
		assert.Len(t, fake.Clicks, 1)
	})

	t.Run("forced when click has no effect", func(t *testing.T) {
		fake := mocks.NewFakeDriver()
		loc := dom.ByCheckboxLabel("I agree")
		el := fake.Add(loc.Selectors[1], &mocks.Element{Inert: true})

		require.NoError(t, newInteractor(t, fake).Check(ctx, loc))
		assert.True(t, el.Checked)
	})
}

func TestInteractorPresent(t *testing.T) {
	fake := mocks.NewFakeDriver()
	loc := dom.ByButtonText("Accept cookies")
	assert.False(t, newInteractor(t, fake).Present(context.Background(), loc))

	fake.Add(loc.Selectors[3], &mocks.Element{})
	assert.True(t, newInteractor(t, fake).Present(context.Background(), loc))

	fake.Add(loc.Selectors[3], &mocks.Element{Hidden: true})
	assert.False(t, newInteractor(t, fake).Present(context.Background(), loc))
}

func TestMerge(t *testing.T) {
	m := dom.Merge("surname", dom.ByControl("surname"), dom.ByLabel("Surname"))
	assert.Equal(t, "surname", m.Name)
	assert.Equal(t, "Surname", m.Label)
	assert.Len(t, m.Selectors, 6)
}
