package domain

import "time"

// ProfessionalTitle is the enumerated set of titles an agent may register under.
type ProfessionalTitle string

const (
	TitleArchitect          ProfessionalTitle = "Architect"
	TitleStructuralEngineer ProfessionalTitle = "Structural Engineer"
	TitleCivilEngineer      ProfessionalTitle = "Civil Engineer"
	TitleQuantitySurveyor   ProfessionalTitle = "Quantity Surveyor"
	TitleInteriorDesigner   ProfessionalTitle = "Interior Designer"
	TitleBIMModeller        ProfessionalTitle = "BIM Modeller"
	TitleProjectManager     ProfessionalTitle = "Project Manager"
)

// ProfessionalTitles lists every accepted title, in display order.
var ProfessionalTitles = []ProfessionalTitle{
	TitleArchitect,
	TitleStructuralEngineer,
	TitleCivilEngineer,
	TitleQuantitySurveyor,
	TitleInteriorDesigner,
	TitleBIMModeller,
	TitleProjectManager,
}

// titlesRequiringLicense are the regulated professions for which a license
// number is mandatory at profile submission.
var titlesRequiringLicense = map[ProfessionalTitle]struct{}{
	TitleArchitect:          {},
	TitleStructuralEngineer: {},
}

// Valid reports whether t is one of the accepted professional titles.
func (t ProfessionalTitle) Valid() bool {
	for _, known := range ProfessionalTitles {
		if t == known {
			return true
		}
	}
	return false
}

// RequiresLicense reports whether the title belongs to a regulated profession.
func (t ProfessionalTitle) RequiresLicense() bool {
	_, ok := titlesRequiringLicense[t]
	return ok
}

// Profile carries the professional details submitted in step 1 (1:1 with Agent).
type Profile struct {
	YearsOfExperience int               `json:"years_of_experience" bson:"years_of_experience"`
	PreferredTitle    ProfessionalTitle `json:"preferred_title" bson:"preferred_title"`
	LicenseNumber     string            `json:"license_number,omitempty" bson:"license_number,omitempty"`
	Specialization    []string          `json:"specialization" bson:"specialization"`
	PortfolioLink     string            `json:"portfolio_link,omitempty" bson:"portfolio_link,omitempty"`
	ProfilePicture    string            `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	PhoneNumber       string            `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}
