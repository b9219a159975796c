package persona

import (
	"errors"
	mathrand "math/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestGenerate(t *testing.T) {
	g := New(WithClock(fixedClock))
	p := g.Generate()

	tests := []struct {
		name  string
		check func() bool
	}{
		{"ID is hex", func() bool { return regexp.MustCompile(`^[0-9a-f]{8}$`).MatchString(p.ID) }},
		{"GivenNames non-empty", func() bool { return p.GivenNames != "" }},
		{"Surname non-empty", func() bool { return p.Surname != "" }},
		{"Sex known", func() bool { return p.Sex == "Male" || p.Sex == "Female" }},
		{"Nationality matches country of birth", func() bool { return p.Nationality == p.CountryOfBirth }},
		{"Passport format", func() bool { return regexp.MustCompile(`^[A-Z]{2}\d{7}$`).MatchString(p.PassportNumber) }},
		{"National ID valid", func() bool { return ValidNationalID(p.NationalID) }},
		{"SSN format", func() bool { return regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`).MatchString(p.SocialSecurityNumber) }},
		{"Email has domain", func() bool { return strings.HasSuffix(p.Email, "@"+emailDomain) }},
		{"Email local part is plain", func() bool {
			return regexp.MustCompile(`^[a-z0-9]+\.[a-z0-9]+[0-9]{2}@`).MatchString(p.Email)
		}},
		{"Phone has 555", func() bool { return strings.HasPrefix(p.Phone, "(555) ") }},
		{"Postal code length", func() bool { return len(p.PostalCode) == 5 }},
		{"CreatedAt is clock", func() bool { return p.CreatedAt.Equal(fixedNow) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check() {
				t.Errorf("check failed for profile: %+v", p)
			}
		})
	}
}

func TestGenerateFieldsNeverEmpty(t *testing.T) {
	g := New(WithClock(fixedClock))
	for range 200 {
		p := g.Generate()
		for _, f := range p.Fields() {
			require.NotEmpty(t, f.Value, "field %q empty in %+v", f.Header, p)
		}
	}
}

func TestGenerateDateInvariants(t *testing.T) {
	g := New(WithClock(fixedClock))

	for range 500 {
		p := g.Generate()

		adult := fixedNow.AddDate(-minAge, 0, 0)
		oldest := fixedNow.AddDate(-maxAge-1, 0, 0)
		require.False(t, p.DateOfBirth.After(adult), "holder must be at least %d: %s", minAge, p.DateOfBirth)
		require.True(t, p.DateOfBirth.After(oldest), "holder too old: %s", p.DateOfBirth)

		require.False(t, p.PassportIssueDate.After(fixedNow), "issue date in the future: %s", p.PassportIssueDate)
		require.False(t, p.PassportIssueDate.Before(p.DateOfBirth.AddDate(minPassportAge, 0, 0)),
			"issued before 16th birthday: dob=%s issue=%s", p.DateOfBirth, p.PassportIssueDate)
		require.True(t, p.PassportExpiryDate.After(fixedNow), "passport already expired: %s", p.PassportExpiryDate)
		require.Equal(t, p.PassportIssueDate.AddDate(passportValidYears, 0, -1), p.PassportExpiryDate)

		require.Zero(t, p.DateOfBirth.Hour())
		require.Zero(t, p.PassportIssueDate.Hour())
	}
}

func TestGeneratePhysicalRanges(t *testing.T) {
	g := New(WithClock(fixedClock))
	for range 500 {
		p := g.Generate()
		require.GreaterOrEqual(t, p.HeightCM, 150)
		require.LessOrEqual(t, p.HeightCM, 200)
		require.GreaterOrEqual(t, p.WeightKG, 45)
		require.LessOrEqual(t, p.WeightKG, 120)
		require.Contains(t, eyeColours, p.EyeColour)
		require.Contains(t, hairColours, p.HairColour)
	}
}

func TestGenerateGivenNamesMatchSex(t *testing.T) {
	g := New(WithClock(fixedClock))
	for range 300 {
		p := g.Generate()
		pool := femaleNames
		if p.Sex == "Male" {
			pool = maleNames
		}
		for _, name := range strings.Fields(p.GivenNames) {
			require.Contains(t, pool, name)
		}
	}
}

func TestGenerateDeterministicWithSource(t *testing.T) {
	a := New(WithClock(fixedClock), WithSource(mathrand.New(mathrand.NewSource(42))))
	b := New(WithClock(fixedClock), WithSource(mathrand.New(mathrand.NewSource(42))))
	assert.Equal(t, a.Generate(), b.Generate())
}

func TestGenerateUniqueness(t *testing.T) {
	g := New(WithClock(fixedClock))
	seen := make(map[string]bool)
	for range 100 {
		p := g.Generate()
		if seen[p.PassportNumber] {
			t.Fatalf("duplicate passport number %s", p.PassportNumber)
		}
		seen[p.PassportNumber] = true
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGeneratePanicsOnBrokenSource(t *testing.T) {
	g := New(WithSource(failingReader{}))
	assert.PanicsWithValue(t, "persona: entropy source: no entropy", func() { g.Generate() })
}

func TestValidNationalID(t *testing.T) {
	// weights 9..2 over 12345678: 9+16+21+24+25+24+21+16 = 156, 156%11 = 2, check = 9
	assert.True(t, ValidNationalID("123456789"))
	assert.False(t, ValidNationalID("123456780"))
	assert.False(t, ValidNationalID("12345678"))
	assert.False(t, ValidNationalID("1234567a9"))
}

func TestFieldsOrderMatchesHeaders(t *testing.T) {
	p := New(WithClock(fixedClock)).Generate()
	fields := p.Fields()
	headers := Headers()
	require.Len(t, fields, len(headers))
	for i := range fields {
		assert.Equal(t, headers[i], fields[i].Header)
	}
	assert.Equal(t, "ID", headers[0])
	assert.Equal(t, p.GivenNames+" "+p.Surname, p.FullName())
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestEmailStripsPunctuation(t *testing.T) {
	g := New(WithSource(zeroReader{}))
	assert.Equal(t, "mary.obrien00@"+emailDomain, g.email("Mary Anne", "O'Brien"))
	assert.Equal(t, "pieter.vandyke00@"+emailDomain, g.email("Pieter", "Van Dyke"))
	assert.Equal(t, "ana.smithjones00@"+emailDomain, g.email("Ana", "Smith-Jones"))
}
