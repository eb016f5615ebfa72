package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"turnero/internal/database"
	"turnero/internal/domain"
	"turnero/internal/events"
	"turnero/internal/metrics"
	"turnero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService drives the client reservation workflow: a session
// walks selecting_date → selecting_time → entering_details → committing
// → confirmed, or ends in failed when the slot is lost to a concurrent
// booking. Sessions live in the state store only; nothing touches the
// system of record before commit.
type BookingService struct {
	sessions       domain.SessionRepository
	store          domain.AppointmentStore
	slots          domain.SlotEngine
	eventBus       domain.EventPublisher
	maxBookingDays int
	defaultCost    float64
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewBookingService(
	sessions domain.SessionRepository,
	store domain.AppointmentStore,
	slots domain.SlotEngine,
	eventBus domain.EventPublisher,
	maxBookingDays int,
	defaultCost float64,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		sessions:       sessions,
		store:          store,
		slots:          slots,
		eventBus:       eventBus,
		maxBookingDays: maxBookingDays,
		defaultCost:    defaultCost,
		logger:         logger,
		now:            time.Now,
	}
}

// StartSession opens a fresh workflow in the date-selection step.
func (s *BookingService) StartSession(ctx context.Context) (*models.BookingSession, error) {
	now := s.now()
	session := &models.BookingSession{
		ID:        uuid.NewString(),
		Step:      models.StepSelectingDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

func (s *BookingService) GetSession(ctx context.Context, id string) (*models.BookingSession, error) {
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ValidateBookingDate enforces the booking horizon.
func (s *BookingService) ValidateBookingDate(date string) error {
	if err := parseDate(date); err != nil {
		return err
	}
	day, _ := time.Parse(models.DateLayout, date)
	today, _ := time.Parse(models.DateLayout, s.now().Format(models.DateLayout))

	if day.Before(today) {
		return database.ErrPastDate
	}
	if day.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// SelectDate computes slots for the date. With availability the session
// advances to time selection; otherwise it stays in date selection and
// the empty slot list is the "no availability" signal.
func (s *BookingService) SelectDate(ctx context.Context, sessionID, date string) (*models.BookingSession, []string, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Terminal() {
		return nil, nil, ErrWrongStep
	}

	if err := s.ValidateBookingDate(date); err != nil {
		return nil, nil, err
	}

	slots, err := s.slots.ComputeAvailableSlots(ctx, date)
	if err != nil {
		return nil, nil, err
	}

	session.Reset()
	if len(slots) > 0 {
		session.Step = models.StepSelectingTime
		session.Date = date
	}
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("save session: %w", err)
	}
	return session, slots, nil
}

// SelectTime picks one of the offered slot labels.
func (s *BookingService) SelectTime(ctx context.Context, sessionID, timeLabel string) (*models.BookingSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepSelectingTime && session.Step != models.StepEnteringDetails {
		return nil, ErrWrongStep
	}
	if !validSlotLabel(timeLabel) {
		return nil, fmt.Errorf("%w: time must be a full-hour HH:00 label", ErrValidation)
	}

	slots, err := s.slots.ComputeAvailableSlots(ctx, session.Date)
	if err != nil {
		return nil, err
	}
	offered := false
	for _, slot := range slots {
		if slot == timeLabel {
			offered = true
			break
		}
	}
	if !offered {
		return nil, fmt.Errorf("%w: time %s is not available on %s", ErrValidation, timeLabel, session.Date)
	}

	session.Step = models.StepEnteringDetails
	session.Time = timeLabel
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// ContactDetails is what the client submits at commit time.
type ContactDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

func (d *ContactDetails) validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Notes = strings.TrimSpace(d.Notes)
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if d.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	return nil
}

// Confirm re-validates the chosen slot and commits the appointment.
// The re-check shrinks the race window; the store's conditional insert
// decides the winner. A lost race moves the session to failed, from
// which the client restarts at date selection.
func (s *BookingService) Confirm(ctx context.Context, sessionID string, details ContactDetails) (*models.Appointment, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.StepEnteringDetails && session.Step != models.StepFailed {
		return nil, ErrWrongStep
	}
	if session.Date == "" || session.Time == "" {
		return nil, ErrWrongStep
	}

	if err := details.validate(); err != nil {
		metrics.IncBooking("validation_error")
		return nil, err
	}

	session.Step = models.StepCommitting
	session.PatientName = details.Name
	session.PatientPhone = details.Phone
	session.Notes = details.Notes
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	free, err := s.slots.SlotFree(ctx, session.Date, session.Time)
	if err != nil {
		s.revertToDetails(ctx, session)
		metrics.IncBooking("store_error")
		return nil, err
	}
	if !free {
		s.failSession(ctx, session, "slot just taken")
		metrics.IncBooking("conflict")
		metrics.IncConflict()
		return nil, database.ErrSlotTaken
	}

	appt := &models.Appointment{
		ID:            uuid.NewString(),
		PatientID:     uuid.NewString(),
		PatientName:   details.Name,
		PatientPhone:  details.Phone,
		Date:          session.Date,
		Time:          session.Time,
		Status:        models.StatusPending,
		Notes:         details.Notes,
		Cost:          s.defaultCost,
		PaymentStatus: models.PaymentUnpaid,
		PaymentMethod: models.MethodPending,
	}

	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			s.failSession(ctx, session, "slot just taken")
			metrics.IncBooking("conflict")
			metrics.IncConflict()
			return nil, err
		}
		s.revertToDetails(ctx, session)
		metrics.IncBooking("store_error")
		return nil, err
	}

	session.Step = models.StepConfirmed
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		// The appointment is committed; a stale session is cosmetic.
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("save confirmed session")
	}

	metrics.IncBooking("confirmed")
	s.publishEvent(events.EventAppointmentCreated, appt, "client")
	return appt, nil
}

// revertToDetails steps a commit attempt back to entering_details so the
// client can retry the same Confirm after a transient store failure.
func (s *BookingService) revertToDetails(ctx context.Context, session *models.BookingSession) {
	session.Step = models.StepEnteringDetails
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("revert session step")
	}
}

func (s *BookingService) failSession(ctx context.Context, session *models.BookingSession, reason string) {
	session.Step = models.StepFailed
	session.FailReason = reason
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("save failed session")
	}
}

// Abandon discards the session. No partial writes exist to undo.
func (s *BookingService) Abandon(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Restart clears selections and returns the session to date selection.
func (s *BookingService) Restart(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Reset()
	session.UpdatedAt = s.now()
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

func (s *BookingService) publishEvent(eventType string, appt *models.Appointment, source string) {
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
		Source:        source,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}
