// Package intake describes the intake form page by page and fills it with a
// generated profile.
package intake

import (
	"strconv"
	"time"

	"github.com/xkilldash9x/intake-cli/internal/browser"
	"github.com/xkilldash9x/intake-cli/internal/browser/dom"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

// FieldKind selects how a field is driven.
type FieldKind int

const (
	Text FieldKind = iota
	Date
	Select
	Radio
	Checkbox
)

func (k FieldKind) String() string {
	switch k {
	case Text:
		return "text"
	case Date:
		return "date"
	case Select:
		return "select"
	case Radio:
		return "radio"
	case Checkbox:
		return "checkbox"
	default:
		return "unknown"
	}
}

// Field is one control on a page.
type Field struct {
	Name string
	Kind FieldKind
	// Locator finds the control. For Select fields it is the trigger; Radio
	// fields build their locator from Group and the value instead.
	Locator dom.Locator
	// Group is the formControlName of a radio group.
	Group    string
	Value    func(persona.Profile) string
	Date     func(persona.Profile) time.Time
	Required bool
}

// Page is one step of the form.
type Page struct {
	Name string
	// Ready appears once the page has rendered. Empty means no wait.
	Ready  dom.Locator
	Fields []Field
	Next   dom.Locator
	// Final marks the page whose Next button submits the application.
	Final bool
}

// CookieBanner is the consent banner shown on first visit.
var CookieBanner = dom.Merge("cookie banner",
	dom.ByButtonText("Accept all cookies"),
	dom.ByButtonText("Accept cookies"),
	dom.ByButtonText("Accept"),
	dom.Locator{Selectors: []browser.Selector{browser.ByCSS("#onetrust-accept-btn-handler")}},
)

func next(texts ...string) dom.Locator {
	locs := make([]dom.Locator, 0, len(texts))
	for _, t := range texts {
		locs = append(locs, dom.ByButtonText(t))
	}
	return dom.Merge("next button", locs...)
}

func control(name, label string) dom.Locator {
	return dom.Merge(label, dom.ByControl(name), dom.ByLabel(label))
}

func textField(name, label string, required bool, v func(persona.Profile) string) Field {
	return Field{Name: label, Kind: Text, Locator: control(name, label), Value: v, Required: required}
}

func dateField(name, label string, required bool, v func(persona.Profile) time.Time) Field {
	return Field{Name: label, Kind: Date, Locator: control(name, label), Date: v, Required: required}
}

func selectField(name, label string, required bool, v func(persona.Profile) string) Field {
	return Field{Name: label, Kind: Select, Locator: control(name, label), Value: v, Required: required}
}

// DefaultPages is the application as currently published: start, five data
// pages and the review page.
func DefaultPages() []Page {
	return []Page{
		{
			Name: "Start",
			Fields: []Field{
				{Name: "Consent", Kind: Checkbox, Locator: dom.ByCheckboxLabel("I confirm that I have read the guidance")},
			},
			Next: next("Start application", "Start now", "Start"),
		},
		{
			Name:  "Personal details",
			Ready: control("surname", "Surname"),
			Fields: []Field{
				textField("givenNames", "Given names", true, func(p persona.Profile) string { return p.GivenNames }),
				textField("surname", "Surname", true, func(p persona.Profile) string { return p.Surname }),
				{Name: "Sex", Kind: Radio, Group: "sex", Value: func(p persona.Profile) string { return p.Sex }, Required: true},
				dateField("dateOfBirth", "Date of birth", true, func(p persona.Profile) time.Time { return p.DateOfBirth }),
				textField("placeOfBirth", "Place of birth", false, func(p persona.Profile) string { return p.PlaceOfBirth }),
				selectField("countryOfBirth", "Country of birth", true, func(p persona.Profile) string { return p.CountryOfBirth }),
				selectField("nationality", "Nationality", true, func(p persona.Profile) string { return p.Nationality }),
			},
			Next: next("Continue", "Next"),
		},
		{
			Name:  "Passport details",
			Ready: control("passportNumber", "Passport number"),
			Fields: []Field{
				textField("passportNumber", "Passport number", true, func(p persona.Profile) string { return p.PassportNumber }),
				dateField("issueDate", "Date of issue", true, func(p persona.Profile) time.Time { return p.PassportIssueDate }),
				dateField("expiryDate", "Date of expiry", true, func(p persona.Profile) time.Time { return p.PassportExpiryDate }),
				textField("issuingAuthority", "Issuing authority", false, func(p persona.Profile) string { return p.IssuingAuthority }),
			},
			Next: next("Continue", "Next"),
		},
		{
			Name:  "Identification numbers",
			Ready: control("nationalId", "National ID number"),
			Fields: []Field{
				textField("nationalId", "National ID number", true, func(p persona.Profile) string { return p.NationalID }),
				textField("socialSecurityNumber", "Social security number", false, func(p persona.Profile) string { return p.SocialSecurityNumber }),
			},
			Next: next("Continue", "Next"),
		},
		{
			Name:  "Physical description",
			Ready: control("height", "Height (cm)"),
			Fields: []Field{
				textField("height", "Height (cm)", true, func(p persona.Profile) string { return strconv.Itoa(p.HeightCM) }),
				textField("weight", "Weight (kg)", false, func(p persona.Profile) string { return strconv.Itoa(p.WeightKG) }),
				selectField("eyeColour", "Eye colour", true, func(p persona.Profile) string { return p.EyeColour }),
				selectField("hairColour", "Hair colour", false, func(p persona.Profile) string { return p.HairColour }),
				textField("distinguishingMarks", "Distinguishing marks", false, func(p persona.Profile) string { return p.DistinguishingMarks }),
			},
			Next: next("Continue", "Next"),
		},
		{
			Name:  "Contact details",
			Ready: control("email", "Email address"),
			Fields: []Field{
				textField("email", "Email address", true, func(p persona.Profile) string { return p.Email }),
				textField("phone", "Telephone number", false, func(p persona.Profile) string { return p.Phone }),
				textField("addressLine1", "Street address", true, func(p persona.Profile) string { return p.Street }),
				textField("city", "Town or city", true, func(p persona.Profile) string { return p.City }),
				textField("postcode", "Postal code", true, func(p persona.Profile) string { return p.PostalCode }),
			},
			Next: next("Continue", "Next"),
		},
		{
			Name:  "Review",
			Ready: next("Submit application", "Submit"),
			Fields: []Field{
				{Name: "Declaration", Kind: Checkbox, Locator: dom.ByCheckboxLabel("I declare that the information"), Required: true},
			},
			Next:  next("Submit application", "Submit"),
			Final: true,
		},
	}
}
