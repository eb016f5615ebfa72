package calendar

import (
	"context"
	"fmt"
	"time"

	"turnero/internal/models"
)

// ScheduleSource provides the weekly working-hours table. The rules
// component only reads it; the settings layer owns mutation.
type ScheduleSource interface {
	GetSchedule(ctx context.Context) ([]models.WorkingHours, error)
}

// Rules answers the two calendar questions the slot engine asks: is a
// date a holiday, and which hours are configured for a weekday.
type Rules struct {
	holidays map[string]struct{}
	schedule ScheduleSource
}

// NewRules builds rules over the bundled holiday list plus any extra
// dates from configuration.
func NewRules(schedule ScheduleSource, extraHolidays []string) *Rules {
	set := make(map[string]struct{}, len(holidays)+len(extraHolidays))
	for _, d := range holidays {
		set[d] = struct{}{}
	}
	for _, d := range extraHolidays {
		set[d] = struct{}{}
	}
	return &Rules{holidays: set, schedule: schedule}
}

// IsHoliday does an exact-match lookup; no recurrence or regional logic.
func (r *Rules) IsHoliday(date string) bool {
	_, ok := r.holidays[date]
	return ok
}

// HoursFor returns the active hours configured for a weekday, ascending.
// A missing or disabled record yields an empty set, not an error.
func (r *Rules) HoursFor(ctx context.Context, dayOfWeek int) ([]int, error) {
	schedule, err := r.schedule.GetSchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	for _, day := range schedule {
		if day.DayOfWeek != dayOfWeek {
			continue
		}
		if !day.IsEnabled {
			return nil, nil
		}
		day.Normalize()
		return day.ActiveHours, nil
	}
	return nil, nil
}

// Weekday parses a store-format date and returns its weekday (0=Sunday).
func Weekday(date string) (int, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(t.Weekday()), nil
}
