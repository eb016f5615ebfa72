package models

import (
	"fmt"
	"sort"
)

// WorkingHours configures one weekday (0=Sunday..6=Saturday). Exactly
// seven records exist at steady state. IsEnabled is derived from
// ActiveHours and kept consistent through Normalize.
type WorkingHours struct {
	DayOfWeek   int   `json:"day_of_week" yaml:"day_of_week"`
	IsEnabled   bool  `json:"is_enabled" yaml:"is_enabled"`
	ActiveHours []int `json:"active_hours" yaml:"active_hours"`
}

// Normalize sorts hours, drops duplicates and out-of-range values, and
// re-derives IsEnabled from the remaining set.
func (w *WorkingHours) Normalize() {
	seen := make(map[int]bool, len(w.ActiveHours))
	hours := w.ActiveHours[:0]
	for _, h := range w.ActiveHours {
		if h < 0 || h > 23 || seen[h] {
			continue
		}
		seen[h] = true
		hours = append(hours, h)
	}
	sort.Ints(hours)
	w.ActiveHours = hours
	w.IsEnabled = len(hours) > 0
}

// Toggle adds or removes an hour mark and re-normalizes.
func (w *WorkingHours) Toggle(hour int) {
	for i, h := range w.ActiveHours {
		if h == hour {
			w.ActiveHours = append(w.ActiveHours[:i], w.ActiveHours[i+1:]...)
			w.Normalize()
			return
		}
	}
	w.ActiveHours = append(w.ActiveHours, hour)
	w.Normalize()
}

// StartTime returns the legacy "HH:00" opening label, derived from the
// hour set rather than stored. Empty when the day is disabled.
func (w *WorkingHours) StartTime() string {
	if len(w.ActiveHours) == 0 {
		return ""
	}
	return fmt.Sprintf("%02d:00", w.ActiveHours[0])
}

// EndTime returns the legacy closing label, one hour past the last slot.
func (w *WorkingHours) EndTime() string {
	if len(w.ActiveHours) == 0 {
		return ""
	}
	return fmt.Sprintf("%02d:00", w.ActiveHours[len(w.ActiveHours)-1]+1)
}

// DefaultSchedule returns the seed configuration applied on first run.
func DefaultSchedule() []WorkingHours {
	schedule := []WorkingHours{
		{DayOfWeek: 0},
		{DayOfWeek: 1, ActiveHours: []int{14, 15, 16, 17, 18, 19}},
		{DayOfWeek: 2, ActiveHours: []int{9, 10, 11, 12, 14, 15, 16, 17}},
		{DayOfWeek: 3},
		{DayOfWeek: 4, ActiveHours: []int{9, 10, 11, 12, 14, 15, 16, 17}},
		{DayOfWeek: 5, ActiveHours: []int{9, 10, 11, 12, 13, 14, 15}},
		{DayOfWeek: 6},
	}
	for i := range schedule {
		schedule[i].Normalize()
	}
	return schedule
}
