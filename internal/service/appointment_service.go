package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"turnero/internal/database"
	"turnero/internal/domain"
	"turnero/internal/events"
	"turnero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AppointmentService covers the admin portal operations: manual entry,
// status transitions, payment settlement, note-taking, deletion, stats.
type AppointmentService struct {
	store    domain.AppointmentStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewAppointmentService(store domain.AppointmentStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *AppointmentService {
	return &AppointmentService{store: store, eventBus: eventBus, logger: logger}
}

// ManualEntry is an appointment created by the admin on behalf of a
// walk-in or phone booking.
type ManualEntry struct {
	PatientID    string  `json:"patient_id,omitempty"`
	PatientName  string  `json:"patient_name"`
	PatientPhone string  `json:"patient_phone,omitempty"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Notes        string  `json:"notes,omitempty"`
	Cost         float64 `json:"cost"`
}

// CreateManual writes a confirmed appointment directly. It bypasses the
// client workflow but not the slot guard: the conditional insert still
// rejects an occupied (date, time) key.
func (s *AppointmentService) CreateManual(ctx context.Context, entry ManualEntry) (*models.Appointment, error) {
	entry.PatientName = strings.TrimSpace(entry.PatientName)
	if entry.PatientName == "" {
		return nil, fmt.Errorf("%w: patient_name is required", ErrValidation)
	}
	if err := parseDate(entry.Date); err != nil {
		return nil, err
	}
	if !validSlotLabel(entry.Time) {
		return nil, fmt.Errorf("%w: time must be a full-hour HH:00 label", ErrValidation)
	}
	if entry.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}

	patientID := entry.PatientID
	if patientID == "" {
		patientID = uuid.NewString()
	}

	appt := &models.Appointment{
		ID:            uuid.NewString(),
		PatientID:     patientID,
		PatientName:   entry.PatientName,
		PatientPhone:  strings.TrimSpace(entry.PatientPhone),
		Date:          entry.Date,
		Time:          entry.Time,
		Status:        models.StatusConfirmed,
		Notes:         strings.TrimSpace(entry.Notes),
		Cost:          entry.Cost,
		PaymentStatus: models.PaymentUnpaid,
		PaymentMethod: models.MethodPending,
	}

	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventAppointmentCreated, appt, "admin")
	return appt, nil
}

// ChangeStatus applies one step of the status machine. The transition
// table lives in models.CanTransition; the version check guards against
// a concurrent admin edit.
func (s *AppointmentService) ChangeStatus(ctx context.Context, id, newStatus string) (*models.Appointment, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, appt.Status, newStatus)
	}

	if err := s.store.UpdateStatusWithVersion(ctx, id, appt.Version, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case models.StatusConfirmed:
		s.publishEvent(events.EventAppointmentConfirmed, updated, "admin")
	case models.StatusCancelled:
		s.publishEvent(events.EventAppointmentCancelled, updated, "admin")
	case models.StatusCompleted:
		s.publishEvent(events.EventAppointmentCompleted, updated, "admin")
	}
	return updated, nil
}

// RegisterPayment settles the bill in one write: method and paid status
// flip together. There is no partial-payment flow.
func (s *AppointmentService) RegisterPayment(ctx context.Context, id, method string) (*models.Appointment, error) {
	if !models.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	if err := s.store.RegisterPayment(ctx, id, method); err != nil {
		return nil, err
	}
	updated, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventPaymentRegistered, updated, "admin")
	return updated, nil
}

// UpdateFields applies a partial update to the mutable fields (contact
// snapshot, notes, clinical observations, cost).
func (s *AppointmentService) UpdateFields(ctx context.Context, id string, upd models.AppointmentUpdate) (*models.Appointment, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if upd.Cost != nil && *upd.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	if err := s.store.UpdateAppointmentFields(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.store.GetAppointment(ctx, id)
}

// Delete removes the record irreversibly. Confirmation happens at the
// API edge before this runs.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.publishEvent(events.EventAppointmentDeleted, appt, "admin")
	return nil
}

func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

func (s *AppointmentService) List(ctx context.Context) ([]*models.Appointment, error) {
	return s.store.ListAppointments(ctx)
}

func (s *AppointmentService) ListByDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	if err := parseDate(date); err != nil {
		return nil, err
	}
	return s.store.ListAppointmentsByDate(ctx, date)
}

func (s *AppointmentService) ListByPatient(ctx context.Context, patientID string) ([]*models.Appointment, error) {
	return s.store.ListAppointmentsByPatient(ctx, patientID)
}

// DailyStats aggregates the dashboard numbers for a date range.
func (s *AppointmentService) DailyStats(ctx context.Context, fromDate, toDate string) ([]models.DayStats, error) {
	if err := parseDate(fromDate); err != nil {
		return nil, err
	}
	if err := parseDate(toDate); err != nil {
		return nil, err
	}
	from, _ := time.Parse(models.DateLayout, fromDate)
	to, _ := time.Parse(models.DateLayout, toDate)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to must not precede from", ErrValidation)
	}
	return s.store.GetDailyStats(ctx, fromDate, toDate)
}

func (s *AppointmentService) publishEvent(eventType string, appt *models.Appointment, source string) {
	if s.eventBus == nil {
		return
	}
	payload := events.AppointmentEventPayload{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		PatientName:   appt.PatientName,
		Date:          appt.Date,
		Time:          appt.Time,
		Status:        appt.Status,
		Cost:          appt.Cost,
		PaymentMethod: appt.PaymentMethod,
		Source:        source,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}
