package persona

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

const (
	minAge = 18
	maxAge = 70

	// passports are issued at 16 at the earliest and are valid for ten years
	minPassportAge     = 16
	passportValidYears = 10
	maxIssueAgeYears   = passportValidYears - 1

	emailDomain = "example.org"

	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator produces random profiles.
type Generator struct {
	src io.Reader
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource replaces crypto/rand.Reader as the entropy source.
func WithSource(r io.Reader) Option {
	return func(g *Generator) { g.src = r }
}

// WithClock fixes the reference time used for ages and document dates.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{src: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a complete random profile. Every field is populated.
func (g *Generator) Generate() Profile {
	now := g.now()
	sex := g.pick(sexes)
	given := g.givenNames(sex)
	surname := g.pick(surnames)
	dob := g.dob(now)
	issue := g.issueDate(now, dob)
	country := g.pick(countries)
	city := g.pick(cities)

	return Profile{
		ID:        g.hexID(),
		CreatedAt: now,

		GivenNames:     given,
		Surname:        surname,
		Sex:            sex,
		DateOfBirth:    dob,
		PlaceOfBirth:   g.pick(cities),
		CountryOfBirth: country,
		Nationality:    country,

		PassportNumber:     g.passportNumber(),
		PassportIssueDate:  issue,
		PassportExpiryDate: issue.AddDate(passportValidYears, 0, -1),
		IssuingAuthority:   g.pick(authorities),

		NationalID:           g.nationalID(),
		SocialSecurityNumber: g.ssn(),

		HeightCM:            150 + g.intn(51),
		WeightKG:            45 + g.intn(76),
		EyeColour:           g.pick(eyeColours),
		HairColour:          g.pick(hairColours),
		DistinguishingMarks: g.pick(marks),

		Email:      g.email(given, surname),
		Phone:      g.phone(),
		Street:     g.street(),
		City:       city,
		PostalCode: fmt.Sprintf("%05d", g.intn(100000)),
	}
}

// givenNames returns one or two given names matching sex.
func (g *Generator) givenNames(sex string) string {
	pool := femaleNames
	if sex == "Male" {
		pool = maleNames
	}
	first := g.pick(pool)
	if g.intn(3) == 0 {
		second := g.pick(pool)
		if second != first {
			return first + " " + second
		}
	}
	return first
}

// dob generates a date of birth between minAge and maxAge years before now.
func (g *Generator) dob(now time.Time) time.Time {
	age := minAge + g.intn(maxAge-minAge)
	base := now.AddDate(-age, 0, 0)
	return truncateDay(base.AddDate(0, 0, -g.intn(365)))
}

// issueDate picks a passport issue date that is at most maxIssueAgeYears old
// and not before the holder's 16th birthday.
func (g *Generator) issueDate(now, dob time.Time) time.Time {
	earliest := now.AddDate(-maxIssueAgeYears, 0, 0)
	if sixteen := dob.AddDate(minPassportAge, 0, 0); sixteen.After(earliest) {
		earliest = sixteen
	}
	span := int(now.Sub(earliest).Hours() / 24)
	if span < 1 {
		return truncateDay(earliest)
	}
	return truncateDay(earliest.AddDate(0, 0, g.intn(span)))
}

// passportNumber is two letters followed by seven digits.
func (g *Generator) passportNumber() string {
	return fmt.Sprintf("%c%c%07d", g.pickByte(upperChars), g.pickByte(upperChars), g.intn(10000000))
}

// nationalID is eight digits plus a mod-11 check digit.
func (g *Generator) nationalID() string {
	for {
		body := fmt.Sprintf("%08d", g.intn(100000000))
		if check, ok := nationalIDCheckDigit(body); ok {
			return body + string(rune('0'+check))
		}
	}
}

// nationalIDCheckDigit computes the weighted mod-11 check digit for an eight
// digit body. ok is false when the remainder maps to 10, which has no digit.
func nationalIDCheckDigit(body string) (int, bool) {
	if len(body) != 8 {
		return 0, false
	}
	sum := 0
	for i, r := range body {
		if r < '0' || r > '9' {
			return 0, false
		}
		sum += int(r-'0') * (9 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return 0, false
	}
	return check, true
}

// ValidNationalID reports whether id is a well formed national ID.
func ValidNationalID(id string) bool {
	if len(id) != 9 {
		return false
	}
	check, ok := nationalIDCheckDigit(id[:8])
	return ok && id[8] == byte('0'+check)
}

// ssn generates an AAA-GG-SSSS number avoiding the never-issued 000, 666 and
// 9xx areas and the zero group and serial.
func (g *Generator) ssn() string {
	area := 1 + g.intn(899)
	if area == 666 {
		area = 667
	}
	group := 1 + g.intn(99)
	serial := 1 + g.intn(9999)
	return fmt.Sprintf("%03d-%02d-%04d", area, group, serial)
}

// email builds firstname.lastname<2 digits>@example.org.
func (g *Generator) email(given, surname string) string {
	first := mailbox(strings.Fields(given)[0])
	last := mailbox(surname)
	return fmt.Sprintf("%s.%s%02d@%s", first, last, g.intn(100), emailDomain)
}

// mailbox lowercases s and keeps only ASCII letters and digits, so surnames
// like "O'Brien" or "Van Dyke" pass strict address validators.
func mailbox(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

// phone generates a fictional number: (555) XXX-XXXX.
func (g *Generator) phone() string {
	prefix := 100 + g.intn(900)
	return fmt.Sprintf("(555) %03d-%04d", prefix, g.intn(10000))
}

// street generates a street address like "1234 Oak Ave".
func (g *Generator) street() string {
	num := 1 + g.intn(9999)
	return fmt.Sprintf("%d %s %s", num, g.pick(streetNames), g.pick(streetSuffixes))
}

// hexID generates an 8-character hex string.
func (g *Generator) hexID() string {
	b := make([]byte, 4)
	if _, err := io.ReadFull(g.src, b); err != nil {
		panic("persona: entropy source: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func (g *Generator) pick(s []string) string {
	return s[g.intn(len(s))]
}

func (g *Generator) pickByte(s string) byte {
	return s[g.intn(len(s))]
}

// intn returns a random int in [0, n).
func (g *Generator) intn(n int) int {
	v, err := rand.Int(g.src, big.NewInt(int64(n)))
	if err != nil {
		// an exhausted or broken entropy source is unrecoverable
		panic("persona: entropy source: " + err.Error())
	}
	return int(v.Int64())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
