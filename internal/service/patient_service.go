package service

import (
	"context"
	"fmt"
	"strings"

	"turnero/internal/domain"
	"turnero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PatientService maintains clinical records for the admin portal.
type PatientService struct {
	store  domain.PatientStore
	appts  domain.AppointmentStore
	logger *zerolog.Logger
}

func NewPatientService(store domain.PatientStore, appts domain.AppointmentStore, logger *zerolog.Logger) *PatientService {
	return &PatientService{store: store, appts: appts, logger: logger}
}

// Save upserts a profile. A missing id mints a new one (first save of a
// walk-in patient promoted to a full record).
func (s *PatientService) Save(ctx context.Context, p *models.PatientProfile) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("%w: patient name is required", ErrValidation)
	}
	if p.BirthDate != "" {
		if err := parseDate(p.BirthDate); err != nil {
			return err
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.store.SavePatient(ctx, p)
}

func (s *PatientService) Get(ctx context.Context, id string) (*models.PatientProfile, error) {
	return s.store.GetPatient(ctx, id)
}

func (s *PatientService) List(ctx context.Context) ([]*models.PatientProfile, error) {
	return s.store.ListPatients(ctx)
}

// History returns the patient's appointments, newest first.
func (s *PatientService) History(ctx context.Context, id string) ([]*models.Appointment, error) {
	if _, err := s.store.GetPatient(ctx, id); err != nil {
		return nil, err
	}
	return s.appts.ListAppointmentsByPatient(ctx, id)
}
