package service

import (
	"context"
	"fmt"

	"turnero/internal/calendar"
	"turnero/internal/domain"
	"turnero/internal/metrics"
	"turnero/internal/models"

	"github.com/rs/zerolog"
)

// SlotService is the availability engine: it combines the calendar rules
// with the current appointment store contents to produce the ordered
// list of bookable times for a date.
type SlotService struct {
	rules  *calendar.Rules
	store  domain.AppointmentStore
	logger *zerolog.Logger
}

func NewSlotService(rules *calendar.Rules, store domain.AppointmentStore, logger *zerolog.Logger) *SlotService {
	return &SlotService{rules: rules, store: store, logger: logger}
}

// ComputeAvailableSlots returns free one-hour slot labels ("HH:00") for
// the date, ascending. Holidays short-circuit to empty; a disabled or
// unconfigured weekday yields empty. Store failures propagate — an error
// is never folded into an empty list, so callers can tell "fully booked"
// from "service unavailable".
func (s *SlotService) ComputeAvailableSlots(ctx context.Context, date string) ([]string, error) {
	dayOfWeek, err := calendar.Weekday(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	metrics.IncSlotQuery()

	if s.rules.IsHoliday(date) {
		return []string{}, nil
	}

	hours, err := s.rules.HoursFor(ctx, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("working hours for %s: %w", date, err)
	}
	if len(hours) == 0 {
		return []string{}, nil
	}

	takenTimes, err := s.store.GetTakenTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("taken times for %s: %w", date, err)
	}
	taken := make(map[string]struct{}, len(takenTimes))
	for _, t := range takenTimes {
		taken[t] = struct{}{}
	}

	slots := make([]string, 0, len(hours))
	for _, hour := range hours {
		label := fmt.Sprintf("%02d:00", hour)
		if _, ok := taken[label]; !ok {
			slots = append(slots, label)
		}
	}
	return slots, nil
}

// SlotFree re-checks a single (date, time) key. Used by the workflow
// right before commit to shrink the race window; the store's unique
// index remains the final guard.
func (s *SlotService) SlotFree(ctx context.Context, date, timeLabel string) (bool, error) {
	slots, err := s.ComputeAvailableSlots(ctx, date)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot == timeLabel {
			return true, nil
		}
	}
	return false, nil
}

var _ domain.SlotEngine = (*SlotService)(nil)

// validSlotLabel reports whether raw is a canonical full-hour label.
func validSlotLabel(raw string) bool {
	if len(raw) != 5 || raw[2] != ':' || raw[3] != '0' || raw[4] != '0' {
		return false
	}
	if raw[0] < '0' || raw[0] > '9' || raw[1] < '0' || raw[1] > '9' {
		return false
	}
	h := int(raw[0]-'0')*10 + int(raw[1]-'0')
	return h < 24
}

// parseDate validates a client-supplied calendar date.
func parseDate(date string) error {
	if len(date) != len(models.DateLayout) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := calendar.Weekday(date); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
