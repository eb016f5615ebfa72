package models

import "time"

// PatientProfile is the admin-maintained clinical record. Appointments
// keep their own denormalized name/phone snapshot, so renaming a patient
// never rewrites booking history.
type PatientProfile struct {
	ID        string    `json:"id" yaml:"id"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	DNI       string    `json:"dni,omitempty" yaml:"dni"`
	Phone     string    `json:"phone,omitempty" yaml:"phone"`
	BirthDate string    `json:"birth_date,omitempty" yaml:"birth_date"` // YYYY-MM-DD
	Insurance string    `json:"insurance,omitempty" yaml:"insurance"`
	Diagnosis string    `json:"diagnosis,omitempty" yaml:"diagnosis"`
	Notes     string    `json:"notes,omitempty" yaml:"notes"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (p *PatientProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProfessionalProfile holds the practitioner fields shown on the
// booking page. Defaults apply when the settings row is absent.
type ProfessionalProfile struct {
	Name      string `json:"name" yaml:"name"`
	Specialty string `json:"specialty" yaml:"specialty"`
	Address   string `json:"address" yaml:"address"`
}

// ApplyDefaults fills empty fields with the bundled defaults.
func (p *ProfessionalProfile) ApplyDefaults(defaults ProfessionalProfile) {
	if p.Name == "" {
		p.Name = defaults.Name
	}
	if p.Specialty == "" {
		p.Specialty = defaults.Specialty
	}
	if p.Address == "" {
		p.Address = defaults.Address
	}
}
