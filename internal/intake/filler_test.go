package intake_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/intake-cli/internal/browser/dom"
	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/intake"
	"github.com/xkilldash9x/intake-cli/internal/mocks"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

const formURL = "https://intake.example.test/application/start"

var clock = func() time.Time { return time.Date(2026, time.February, 3, 8, 15, 0, 0, time.UTC) }

func testConfig(t *testing.T) config.FormConfig {
	return config.FormConfig{
		URL:            formURL,
		ElementTimeout: 50 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		DateLayout:     "02/01/2006",
		ArtifactsDir:   t.TempDir(),
	}
}

func testProfile() persona.Profile {
	return persona.New(persona.WithClock(clock)).Generate()
}

// renderForm places every control of pages on the fake page, wired so that
// select triggers reveal their options.
func renderForm(fake *mocks.FakeDriver, pages []intake.Page, p persona.Profile) {
	for _, page := range pages {
		if len(page.Ready.Selectors) > 0 {
			fake.Add(page.Ready.Selectors[0], &mocks.Element{Inert: true})
		}
		if !page.Final {
			fake.Add(page.Next.Selectors[0], &mocks.Element{Inert: true})
		}
		for _, field := range page.Fields {
			switch field.Kind {
			case intake.Radio:
				fake.Add(dom.ByRadioLabel(field.Group, field.Value(p)).Selectors[0], &mocks.Element{})
			case intake.Select:
				option := dom.ByOptionText(field.Value(p)).Selectors[0]
				fake.Add(field.Locator.Selectors[0], &mocks.Element{
					Inert:   true,
					OnClick: func(f *mocks.FakeDriver) { f.Add(option, &mocks.Element{Inert: true}) },
				})
			default:
				fake.Add(field.Locator.Selectors[0], &mocks.Element{})
			}
		}
	}
}

func completedPages(pages []intake.Page) []intake.PageResult {
	var out []intake.PageResult
	for _, page := range pages {
		r := intake.PageResult{Name: page.Name, Completed: true}
		for _, f := range page.Fields {
			r.Filled = append(r.Filled, f.Name)
		}
		out = append(out, r)
	}
	return out
}

func TestFillerRun_HappyPath(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)

	filler := intake.NewFiller(fake, testConfig(t), zaptest.NewLogger(t))
	report, err := filler.Run(context.Background(), p)
	require.NoError(t, err)

	if diff := cmp.Diff(completedPages(pages), report.Pages, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("report pages mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, report.Completed)
	assert.False(t, report.Submitted, "submission is off by default")
	assert.Equal(t, formURL, report.FinalURL)
	assert.Equal(t, []string{formURL}, fake.Navigations)

	dob := pages[1].Fields[3]
	require.Equal(t, "Date of birth", dob.Name)
	assert.Equal(t, p.DateOfBirth.Format("02/01/2006"), fake.Element(dob.Locator.Selectors[0]).Value)

	final := pages[len(pages)-1]
	for _, sel := range fake.Clicks {
		assert.NotEqual(t, final.Next.Selectors[0], sel, "submit must not be clicked")
	}
}

func TestFillerRun_Submit(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)
	final := pages[len(pages)-1]
	fake.Add(final.Next.Selectors[0], &mocks.Element{
		Inert:   true,
		OnClick: func(f *mocks.FakeDriver) { f.SetURL(formURL + "/confirmation") },
	})

	cfg := testConfig(t)
	cfg.Submit = true
	report, err := intake.NewFiller(fake, cfg, zaptest.NewLogger(t)).Run(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, report.Submitted)
	assert.Equal(t, formURL+"/confirmation", report.FinalURL)
}

func TestFillerRun_ReviewWithPlainSubmitButton(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)
	final := pages[len(pages)-1]
	fake.Remove(final.Ready.Selectors[0])
	fake.Add(dom.ByButtonText("Submit").Selectors[0], &mocks.Element{Inert: true})

	report, err := intake.NewFiller(fake, testConfig(t), zaptest.NewLogger(t)).Run(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, report.Completed)
	require.Len(t, report.Pages, len(pages))
	assert.True(t, report.Pages[len(pages)-1].Completed)
}

func TestFillerRun_OptionalFieldMissing(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)

	place := pages[1].Fields[4]
	require.Equal(t, "Place of birth", place.Name)
	require.False(t, place.Required)
	fake.Remove(place.Locator.Selectors[0])

	report, err := intake.NewFiller(fake, testConfig(t), zaptest.NewLogger(t)).Run(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, report.Completed)
	assert.Equal(t, 1, report.FailedFields())
	require.Len(t, report.Pages[1].Failed, 1)
	assert.Equal(t, "Place of birth", report.Pages[1].Failed[0].Field)
	assert.NotContains(t, report.Pages[1].Filled, "Place of birth")
	assert.True(t, report.Pages[1].Completed)
}

func TestFillerRun_RequiredFieldAbortsPage(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)

	number := pages[2].Fields[0]
	require.Equal(t, "Passport number", number.Name)
	fake.Remove(number.Locator.Selectors[0])

	cfg := testConfig(t)
	filler := intake.NewFiller(fake, cfg, zaptest.NewLogger(t), intake.WithClock(clock))
	report, err := filler.Run(context.Background(), p)

	require.ErrorIs(t, err, intake.ErrPageAborted)
	assert.ErrorIs(t, err, dom.ErrNotFound)
	assert.Contains(t, err.Error(), "Passport details")
	assert.False(t, report.Completed)
	require.Len(t, report.Pages, 3)
	assert.False(t, report.Pages[2].Completed)

	require.NotEmpty(t, report.Screenshot)
	assert.Contains(t, report.Screenshot, p.ID+"-passport-details-20260203T081500Z.png")
	_, statErr := os.Stat(report.Screenshot)
	assert.NoError(t, statErr)
}

func TestFillerRun_MissingNextAbortsPage(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := []intake.Page{{
		Name:   "Only",
		Fields: []intake.Field{{Name: "Surname", Kind: intake.Text, Locator: dom.ByControl("surname"), Value: func(p persona.Profile) string { return p.Surname }}},
		Next:   dom.ByButtonText("Next"),
	}}
	fake.Add(pages[0].Fields[0].Locator.Selectors[0], &mocks.Element{})

	cfg := testConfig(t)
	cfg.ArtifactsDir = ""
	report, err := intake.NewFiller(fake, cfg, zaptest.NewLogger(t), intake.WithPages(pages)).Run(context.Background(), p)

	require.ErrorIs(t, err, intake.ErrPageAborted)
	assert.Contains(t, err.Error(), "next button")
	assert.Empty(t, report.Screenshot, "screenshots are disabled without an artifacts dir")
	assert.Equal(t, []string{"Surname"}, report.Pages[0].Filled)
}

func TestFillerRun_NavigationFailure(t *testing.T) {
	fake := mocks.NewFakeDriver()
	fake.FailNavigation(errors.New("net::ERR_NAME_NOT_RESOLVED"))

	_, err := intake.NewFiller(fake, testConfig(t), zaptest.NewLogger(t)).Run(context.Background(), testProfile())
	require.Error(t, err)
	assert.NotErrorIs(t, err, intake.ErrPageAborted)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
}

func TestFillerRun_DismissesCookieBanner(t *testing.T) {
	fake := mocks.NewFakeDriver()
	p := testProfile()
	pages := intake.DefaultPages()
	renderForm(fake, pages, p)
	banner := intake.CookieBanner.Selectors[0]
	fake.Add(banner, &mocks.Element{
		Inert:   true,
		OnClick: func(f *mocks.FakeDriver) { f.Remove(banner) },
	})

	_, err := intake.NewFiller(fake, testConfig(t), zaptest.NewLogger(t)).Run(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, fake.Clicks)
	assert.Equal(t, banner, fake.Clicks[0])
	assert.Nil(t, fake.Element(banner))
}

func TestDefaultPages(t *testing.T) {
	pages := intake.DefaultPages()
	require.NotEmpty(t, pages)
	p := testProfile()

	seen := map[string]bool{}
	for i, page := range pages {
		assert.False(t, seen[page.Name], "duplicate page %q", page.Name)
		seen[page.Name] = true
		assert.NotEmpty(t, page.Next.Selectors, "page %q has no next button", page.Name)
		assert.Equal(t, i == len(pages)-1, page.Final, "only the last page submits")

		for _, f := range page.Fields {
			switch f.Kind {
			case intake.Date:
				require.NotNil(t, f.Date, f.Name)
				assert.False(t, f.Date(p).IsZero(), f.Name)
			case intake.Checkbox:
				assert.NotEmpty(t, f.Locator.Selectors, f.Name)
			case intake.Radio:
				assert.NotEmpty(t, f.Group, f.Name)
				assert.NotEmpty(t, f.Value(p), f.Name)
			default:
				require.NotNil(t, f.Value, f.Name)
				assert.NotEmpty(t, f.Value(p), f.Name)
				assert.NotEmpty(t, f.Locator.Selectors, f.Name)
			}
		}
	}
	assert.Equal(t, "Start", pages[0].Name)
	assert.Equal(t, "Review", pages[len(pages)-1].Name)
}
