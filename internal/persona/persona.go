// Package persona generates the synthetic person profile that is typed into
// the intake form, exported to the workbook and summarised in the run email.
// All generation uses crypto/rand.
package persona

import (
	"strconv"
	"time"
)

// DateLayout is the layout dates use when a profile is flattened to text.
const DateLayout = "2006-01-02"

// Profile holds a complete generated applicant.
type Profile struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GivenNames     string    `json:"given_names"`
	Surname        string    `json:"surname"`
	Sex            string    `json:"sex"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	PlaceOfBirth   string    `json:"place_of_birth"`
	CountryOfBirth string    `json:"country_of_birth"`
	Nationality    string    `json:"nationality"`

	PassportNumber     string    `json:"passport_number"`
	PassportIssueDate  time.Time `json:"passport_issue_date"`
	PassportExpiryDate time.Time `json:"passport_expiry_date"`
	IssuingAuthority   string    `json:"issuing_authority"`

	NationalID           string `json:"national_id"`
	SocialSecurityNumber string `json:"social_security_number"`

	HeightCM            int    `json:"height_cm"`
	WeightKG            int    `json:"weight_kg"`
	EyeColour           string `json:"eye_colour"`
	HairColour          string `json:"hair_colour"`
	DistinguishingMarks string `json:"distinguishing_marks"`

	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Field is one flattened (header, value) pair of a profile.
type Field struct {
	Header string
	Value  string
}

// Fields flattens the profile into a stable, ordered list. The order is the
// column order of the exported workbook.
func (p Profile) Fields() []Field {
	return []Field{
		{"ID", p.ID},
		{"Created At", p.CreatedAt.Format(time.RFC3339)},
		{"Given Names", p.GivenNames},
		{"Surname", p.Surname},
		{"Sex", p.Sex},
		{"Date of Birth", p.DateOfBirth.Format(DateLayout)},
		{"Place of Birth", p.PlaceOfBirth},
		{"Country of Birth", p.CountryOfBirth},
		{"Nationality", p.Nationality},
		{"Passport Number", p.PassportNumber},
		{"Passport Issue Date", p.PassportIssueDate.Format(DateLayout)},
		{"Passport Expiry Date", p.PassportExpiryDate.Format(DateLayout)},
		{"Issuing Authority", p.IssuingAuthority},
		{"National ID", p.NationalID},
		{"Social Security Number", p.SocialSecurityNumber},
		{"Height (cm)", strconv.Itoa(p.HeightCM)},
		{"Weight (kg)", strconv.Itoa(p.WeightKG)},
		{"Eye Colour", p.EyeColour},
		{"Hair Colour", p.HairColour},
		{"Distinguishing Marks", p.DistinguishingMarks},
		{"Email", p.Email},
		{"Phone", p.Phone},
		{"Street", p.Street},
		{"City", p.City},
		{"Postal Code", p.PostalCode},
	}
}

// Headers returns the column headers in Fields order.
func Headers() []string {
	fields := Profile{}.Fields()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Header
	}
	return headers
}

// FullName joins given names and surname.
func (p Profile) FullName() string {
	return p.GivenNames + " " + p.Surname
}
