package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkingHoursNormalize(t *testing.T) {
	w := WorkingHours{DayOfWeek: 1, ActiveHours: []int{15, 9, 9, -1, 24, 10}}
	w.Normalize()

	assert.Equal(t, []int{9, 10, 15}, w.ActiveHours)
	assert.True(t, w.IsEnabled)

	w.ActiveHours = nil
	w.Normalize()
	assert.False(t, w.IsEnabled)
}

func TestWorkingHoursToggle(t *testing.T) {
	w := WorkingHours{DayOfWeek: 2, ActiveHours: []int{9, 10}}
	w.Normalize()

	w.Toggle(11)
	assert.Equal(t, []int{9, 10, 11}, w.ActiveHours)

	w.Toggle(10)
	assert.Equal(t, []int{9, 11}, w.ActiveHours)

	// Removing the last hours disables the day.
	w.Toggle(9)
	w.Toggle(11)
	assert.Empty(t, w.ActiveHours)
	assert.False(t, w.IsEnabled)
}

func TestWorkingHoursDerivedTimes(t *testing.T) {
	w := WorkingHours{DayOfWeek: 4, ActiveHours: []int{9, 10, 11, 12, 14, 15, 16, 17}}
	w.Normalize()

	assert.Equal(t, "09:00", w.StartTime())
	assert.Equal(t, "18:00", w.EndTime())

	disabled := WorkingHours{DayOfWeek: 0}
	assert.Equal(t, "", disabled.StartTime())
	assert.Equal(t, "", disabled.EndTime())
}

func TestDefaultSchedule(t *testing.T) {
	schedule := DefaultSchedule()
	assert.Len(t, schedule, 7)

	byDay := make(map[int]WorkingHours, 7)
	for _, d := range schedule {
		byDay[d.DayOfWeek] = d
	}

	assert.False(t, byDay[0].IsEnabled)
	assert.False(t, byDay[3].IsEnabled)
	assert.False(t, byDay[6].IsEnabled)

	monday := byDay[1]
	assert.Equal(t, []int{14, 15, 16, 17, 18, 19}, monday.ActiveHours)
	assert.Equal(t, "14:00", monday.StartTime())
	assert.Equal(t, "20:00", monday.EndTime())
	assert.Equal(t, []int{9, 10, 11, 12, 13, 14, 15}, byDay[5].ActiveHours)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestValidStatusAndMethod(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus("archived"))

	assert.True(t, ValidPaymentMethod(MethodCash))
	assert.True(t, ValidPaymentMethod(MethodInsurance))
	assert.False(t, ValidPaymentMethod(MethodPending))
	assert.False(t, ValidPaymentMethod("crypto"))
}

func TestBookingSessionReset(t *testing.T) {
	s := BookingSession{
		ID:           "abc",
		Step:         StepFailed,
		Date:         "2026-09-07",
		Time:         "14:00",
		PatientName:  "Ana",
		PatientPhone: "111",
		FailReason:   "slot just taken",
	}
	s.Reset()

	assert.Equal(t, StepSelectingDate, s.Step)
	assert.Empty(t, s.Date)
	assert.Empty(t, s.Time)
	assert.Empty(t, s.PatientName)
	assert.Empty(t, s.FailReason)
	assert.Equal(t, "abc", s.ID)
}

func TestBookingSessionTerminal(t *testing.T) {
	s := BookingSession{Step: StepConfirmed}
	assert.True(t, s.Terminal())

	s.Step = StepFailed
	assert.False(t, s.Terminal(), "failed sessions can be restarted")
}

func TestPatientFullName(t *testing.T) {
	p := PatientProfile{FirstName: "Ana", LastName: "García"}
	assert.Equal(t, "Ana García", p.FullName())

	p = PatientProfile{LastName: "García"}
	assert.Equal(t, "García", p.FullName())

	p = PatientProfile{FirstName: "Ana"}
	assert.Equal(t, "Ana", p.FullName())
}

func TestAppointmentOccupiesSlot(t *testing.T) {
	a := Appointment{Date: "2026-09-07", Time: "14:00", Status: StatusPending}
	assert.True(t, a.OccupiesSlot())
	assert.Equal(t, "2026-09-07 14:00", a.SlotKey())

	a.Status = StatusCancelled
	assert.False(t, a.OccupiesSlot())
}

func TestProfessionalProfileDefaults(t *testing.T) {
	defaults := ProfessionalProfile{Name: "Lic. Gabriel Medina", Specialty: "Psicología Clínica", Address: "Av. Corrientes 1234, Piso 5, CABA"}
	p := ProfessionalProfile{Name: "Dra. López"}
	p.ApplyDefaults(defaults)

	assert.Equal(t, "Dra. López", p.Name)
	assert.Equal(t, "Psicología Clínica", p.Specialty)
	assert.Equal(t, "Av. Corrientes 1234, Piso 5, CABA", p.Address)
}
