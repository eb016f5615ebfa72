package domain

import (
	"context"

	"turnero/internal/models"
)

// AppointmentStore is the persistence contract the slot engine and the
// booking workflow depend on. The SQLite database implements it; tests
// substitute mocks.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context) ([]*models.Appointment, error)
	ListAppointmentsByDate(ctx context.Context, date string) ([]*models.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]*models.Appointment, error)
	GetTakenTimes(ctx context.Context, date string) ([]string, error)
	UpdateStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	UpdateAppointmentFields(ctx context.Context, id string, upd models.AppointmentUpdate) error
	RegisterPayment(ctx context.Context, id string, method string) error
	DeleteAppointment(ctx context.Context, id string) error
	GetDailyStats(ctx context.Context, fromDate, toDate string) ([]models.DayStats, error)
}

// ConfigStore owns the settings documents: the weekly working-hours
// table and the professional profile.
type ConfigStore interface {
	GetSchedule(ctx context.Context) ([]models.WorkingHours, error)
	SaveSchedule(ctx context.Context, schedule []models.WorkingHours) error
	GetProfile(ctx context.Context, defaults models.ProfessionalProfile) (models.ProfessionalProfile, error)
	SaveProfile(ctx context.Context, profile models.ProfessionalProfile) error
}

// PatientStore persists clinical records.
type PatientStore interface {
	SavePatient(ctx context.Context, p *models.PatientProfile) error
	GetPatient(ctx context.Context, id string) (*models.PatientProfile, error)
	ListPatients(ctx context.Context) ([]*models.PatientProfile, error)
}

// SessionRepository keeps in-flight booking sessions. Implementations:
// redis (primary), memory (fallback), failover (wraps both).
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.BookingSession, error)
	SetSession(ctx context.Context, session *models.BookingSession) error
	DeleteSession(ctx context.Context, id string) error
}

// SlotEngine computes bookable times for a date.
type SlotEngine interface {
	ComputeAvailableSlots(ctx context.Context, date string) ([]string, error)
	SlotFree(ctx context.Context, date, timeLabel string) (bool, error)
}

// EventPublisher fans appointment lifecycle events out to subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportEnqueuer schedules agenda export work.
type ExportEnqueuer interface {
	EnqueueExport(ctx context.Context, fromDate, toDate string) (*models.ExportTask, error)
}
