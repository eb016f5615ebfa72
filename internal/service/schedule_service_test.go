package service

import (
	"context"
	"testing"

	"turnero/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clinicDefaults = models.ProfessionalProfile{
	Name:      "Lic. Gabriel Medina",
	Specialty: "Psicología Clínica",
	Address:   "Av. Corrientes 1234, Piso 5, CABA",
}

func newScheduleService(t *testing.T) *ScheduleService {
	t.Helper()
	db, logger := newTestDB(t)
	return NewScheduleService(db, clinicDefaults, logger)
}

func TestToggleHour(t *testing.T) {
	svc := newScheduleService(t)
	ctx := context.Background()

	// Wednesday is disabled in the default schedule.
	day, err := svc.ToggleHour(ctx, 3, 10)
	require.NoError(t, err)
	assert.True(t, day.IsEnabled)
	assert.Equal(t, []int{10}, day.ActiveHours)
	assert.Equal(t, "10:00", day.StartTime())
	assert.Equal(t, "11:00", day.EndTime())

	// Toggling the same hour off disables the day again.
	day, err = svc.ToggleHour(ctx, 3, 10)
	require.NoError(t, err)
	assert.False(t, day.IsEnabled)
	assert.Empty(t, day.ActiveHours)

	schedule, err := svc.GetSchedule(ctx)
	require.NoError(t, err)
	for _, d := range schedule {
		if d.DayOfWeek == 3 {
			assert.False(t, d.IsEnabled, "toggles persist")
		}
	}
}

func TestToggleHourValidation(t *testing.T) {
	svc := newScheduleService(t)
	ctx := context.Background()

	_, err := svc.ToggleHour(ctx, 7, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ToggleHour(ctx, -1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ToggleHour(ctx, 1, 24)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveScheduleRejectsBadTable(t *testing.T) {
	svc := newScheduleService(t)

	err := svc.SaveSchedule(context.Background(), []models.WorkingHours{{DayOfWeek: 1}})
	assert.Error(t, err)
}

func TestProfileMergeSemantics(t *testing.T) {
	svc := newScheduleService(t)
	ctx := context.Background()

	profile, err := svc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, clinicDefaults, profile)

	// A partial save keeps the untouched fields.
	require.NoError(t, svc.SaveProfile(ctx, models.ProfessionalProfile{Name: "Dra. López"}))

	profile, err = svc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dra. López", profile.Name)
	assert.Equal(t, clinicDefaults.Specialty, profile.Specialty)
	assert.Equal(t, clinicDefaults.Address, profile.Address)
}
