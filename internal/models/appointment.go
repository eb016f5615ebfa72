package models

import "time"

type Appointment struct {
	ID                   string    `json:"id"`
	PatientID            string    `json:"patient_id"`
	PatientName          string    `json:"patient_name"`
	PatientPhone         string    `json:"patient_phone,omitempty"`
	Date                 string    `json:"date"` // YYYY-MM-DD
	Time                 string    `json:"time"` // HH:MM, full hours only
	Status               string    `json:"status"`
	Notes                string    `json:"notes,omitempty"`                 // patient-supplied reason
	ClinicalObservations string    `json:"clinical_observations,omitempty"` // practitioner-authored
	Cost                 float64   `json:"cost"`
	PaymentStatus        string    `json:"payment_status"`
	PaymentMethod        string    `json:"payment_method"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	Version              int64     `json:"version"`
}

// SlotKey identifies the one-hour slot this appointment occupies.
func (a *Appointment) SlotKey() string {
	return a.Date + " " + a.Time
}

// OccupiesSlot reports whether the appointment blocks its slot for
// other bookings. Cancelled appointments free their slot.
func (a *Appointment) OccupiesSlot() bool {
	return a.Status != StatusCancelled
}

// AppointmentUpdate carries partial-update fields; nil means unchanged.
type AppointmentUpdate struct {
	PatientName          *string  `json:"patient_name,omitempty"`
	PatientPhone         *string  `json:"patient_phone,omitempty"`
	Notes                *string  `json:"notes,omitempty"`
	ClinicalObservations *string  `json:"clinical_observations,omitempty"`
	Cost                 *float64 `json:"cost,omitempty"`
}

func (u AppointmentUpdate) Empty() bool {
	return u.PatientName == nil && u.PatientPhone == nil && u.Notes == nil &&
		u.ClinicalObservations == nil && u.Cost == nil
}

type DayStats struct {
	Date              string  `json:"date"`
	TotalAppointments int     `json:"total_appointments"`
	TotalIncome       float64 `json:"total_income"`
}
