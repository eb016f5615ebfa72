package models

import "time"

// BookingSession tracks one client's progress through the reservation
// workflow. It lives in the state store, never in the system of record;
// abandoning a session has no side effects.
type BookingSession struct {
	ID           string    `json:"id"`
	Step         string    `json:"step"`
	Date         string    `json:"date,omitempty"`
	Time         string    `json:"time,omitempty"`
	PatientName  string    `json:"patient_name,omitempty"`
	PatientPhone string    `json:"patient_phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	FailReason   string    `json:"fail_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reset clears all selections and returns the session to date selection.
func (s *BookingSession) Reset() {
	s.Step = StepSelectingDate
	s.Date = ""
	s.Time = ""
	s.PatientName = ""
	s.PatientPhone = ""
	s.Notes = ""
	s.FailReason = ""
}

// Terminal reports whether the workflow has finished for this session.
func (s *BookingSession) Terminal() bool {
	return s.Step == StepConfirmed
}
