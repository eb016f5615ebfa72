package service

import (
	"context"
	"fmt"

	"turnero/internal/domain"
	"turnero/internal/models"

	"github.com/rs/zerolog"
)

// ScheduleService manages the weekly working-hours table and the
// professional profile. Admin-only writers; last write wins.
type ScheduleService struct {
	store    domain.ConfigStore
	defaults models.ProfessionalProfile
	logger   *zerolog.Logger
}

func NewScheduleService(store domain.ConfigStore, defaults models.ProfessionalProfile, logger *zerolog.Logger) *ScheduleService {
	return &ScheduleService{store: store, defaults: defaults, logger: logger}
}

func (s *ScheduleService) GetSchedule(ctx context.Context) ([]models.WorkingHours, error) {
	return s.store.GetSchedule(ctx)
}

func (s *ScheduleService) SaveSchedule(ctx context.Context, schedule []models.WorkingHours) error {
	if err := s.store.SaveSchedule(ctx, schedule); err != nil {
		return err
	}
	s.logger.Info().Msg("weekly schedule updated")
	return nil
}

// ToggleHour flips one hour mark on a weekday and returns the updated
// day record. Enabling/disabling the day follows from the hour set.
func (s *ScheduleService) ToggleHour(ctx context.Context, dayOfWeek, hour int) (*models.WorkingHours, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, fmt.Errorf("%w: day_of_week must be 0..6", ErrValidation)
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: hour must be 0..23", ErrValidation)
	}

	schedule, err := s.store.GetSchedule(ctx)
	if err != nil {
		return nil, err
	}

	for i := range schedule {
		if schedule[i].DayOfWeek != dayOfWeek {
			continue
		}
		schedule[i].Toggle(hour)
		if err := s.store.SaveSchedule(ctx, schedule); err != nil {
			return nil, err
		}
		day := schedule[i]
		s.logger.Info().Int("day_of_week", dayOfWeek).Int("hour", hour).Bool("enabled", day.IsEnabled).Msg("working hour toggled")
		return &day, nil
	}
	return nil, fmt.Errorf("%w: no schedule entry for day %d", ErrValidation, dayOfWeek)
}

func (s *ScheduleService) GetProfile(ctx context.Context) (models.ProfessionalProfile, error) {
	return s.store.GetProfile(ctx, s.defaults)
}

func (s *ScheduleService) SaveProfile(ctx context.Context, profile models.ProfessionalProfile) error {
	// Merge semantics: empty fields keep their current value.
	current, err := s.store.GetProfile(ctx, s.defaults)
	if err != nil {
		return err
	}
	profile.ApplyDefaults(current)
	return s.store.SaveProfile(ctx, profile)
}
