package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"turnero/internal/calendar"
	"turnero/internal/config"
	"turnero/internal/database"
	"turnero/internal/events"
	"turnero/internal/models"
	"turnero/internal/repository"
	"turnero/internal/service"
	"turnero/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	db      *database.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter())

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Every weekday bookable 9-17 so the workflow tests can use any
	// near-future date.
	schedule := make([]models.WorkingHours, 7)
	for d := 0; d < 7; d++ {
		schedule[d] = models.WorkingHours{DayOfWeek: d, ActiveHours: []int{9, 10, 11, 14, 15, 16, 17}}
	}
	require.NoError(t, db.SaveSchedule(t.Context(), schedule))

	cfg := &config.APIConfig{Port: 0}

	sessions := repository.NewMemorySessionRepository(30 * time.Minute)
	bus := events.NewEventBus()
	slots := service.NewSlotService(calendar.NewRules(db, nil), db, &logger)
	bookings := service.NewBookingService(sessions, db, slots, bus, 90, 15000, &logger)
	appointments := service.NewAppointmentService(db, bus, &logger)
	scheduleSvc := service.NewScheduleService(db, models.ProfessionalProfile{
		Name:      "Lic. Gabriel Medina",
		Specialty: "Psicología Clínica",
		Address:   "Av. Corrientes 1234, Piso 5, CABA",
	}, &logger)
	patients := service.NewPatientService(db, db, &logger)
	exports := worker.NewAgendaWorker(db, nil, worker.RetryPolicy{}, t.TempDir(), &logger)

	srv := NewHTTPServer(cfg, slots, bookings, appointments, scheduleSvc, patients, exports, &logger)
	return &testServer{handler: srv.Handler(), db: db}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func futureDate(daysAhead int) string {
	return time.Now().AddDate(0, 0, daysAhead).Format(models.DateLayout)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlotsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/slots?date="+futureDate(3), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}](t, rec)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"}, resp.Slots)

	rec = ts.do(t, http.MethodGet, "/api/v1/slots?date=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBookingWorkflowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	date := futureDate(3)

	rec := ts.do(t, http.MethodPost, "/api/v1/booking/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decodeBody[models.BookingSession](t, rec)
	require.NotEmpty(t, session.ID)
	base := "/api/v1/booking/sessions/" + session.ID

	rec = ts.do(t, http.MethodPost, base+"/date", map[string]string{"date": date})
	require.Equal(t, http.StatusOK, rec.Code)
	step := decodeBody[struct {
		Session models.BookingSession `json:"session"`
		Slots   []string              `json:"slots"`
	}](t, rec)
	assert.Equal(t, models.StepSelectingTime, step.Session.Step)
	assert.NotEmpty(t, step.Slots)

	rec = ts.do(t, http.MethodPost, base+"/time", map[string]string{"time": "10:00"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/confirm", map[string]string{
		"name":  "Ana García",
		"phone": "+54 11 5555-0001",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	appt := decodeBody[models.Appointment](t, rec)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, date, appt.Date)
	assert.Equal(t, "10:00", appt.Time)

	rec = ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	final := decodeBody[models.BookingSession](t, rec)
	assert.Equal(t, models.StepConfirmed, final.Step)
}

func TestBookingValidationOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/booking/sessions", nil)
	session := decodeBody[models.BookingSession](t, rec)
	base := "/api/v1/booking/sessions/" + session.ID

	rec = ts.do(t, http.MethodPost, base+"/date", map[string]string{"date": "2020-01-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "past dates are rejected")

	rec = ts.do(t, http.MethodPost, base+"/time", map[string]string{"time": "10:00"})
	assert.Equal(t, http.StatusConflict, rec.Code, "selecting a time before a date is a step conflict")

	rec = ts.do(t, http.MethodGet, "/api/v1/booking/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown fields are rejected outright.
	rec = ts.do(t, http.MethodPost, base+"/date", map[string]string{"when": "2026-09-07"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConcurrentConfirmOneWinner(t *testing.T) {
	ts := newTestServer(t)
	date := futureDate(3)

	const contenders = 6
	bases := make([]string, contenders)
	for i := range bases {
		rec := ts.do(t, http.MethodPost, "/api/v1/booking/sessions", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		session := decodeBody[models.BookingSession](t, rec)
		base := "/api/v1/booking/sessions/" + session.ID

		rec = ts.do(t, http.MethodPost, base+"/date", map[string]string{"date": date})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = ts.do(t, http.MethodPost, base+"/time", map[string]string{"time": "14:00"})
		require.Equal(t, http.StatusOK, rec.Code, "every contender gets the same offered slot")
		bases[i] = base
	}

	var wg sync.WaitGroup
	wg.Add(contenders)
	codes := make(chan int, contenders)
	for i := 0; i < contenders; i++ {
		go func(base string, n int) {
			defer wg.Done()
			rec := ts.do(t, http.MethodPost, base+"/confirm", map[string]string{
				"name":  fmt.Sprintf("Cliente %d", n),
				"phone": fmt.Sprintf("+54 11 5555-%04d", n),
			})
			codes <- rec.Code
		}(bases[i], i)
	}
	wg.Wait()
	close(codes)

	created, conflicted := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created, "exactly one confirmation wins the slot")
	assert.Equal(t, contenders-1, conflicted)

	appts, err := ts.db.ListAppointmentsByDate(t.Context(), date)
	require.NoError(t, err)
	count := 0
	for _, a := range appts {
		if a.Time == "14:00" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAppointmentsAdminOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/appointments", service.ManualEntry{
		PatientName: "Carlos Pérez",
		Date:        "2026-10-05",
		Time:        "11:00",
		Cost:        12000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	appt := decodeBody[models.Appointment](t, rec)
	assert.Equal(t, models.StatusConfirmed, appt.Status)

	// Same slot again conflicts.
	rec = ts.do(t, http.MethodPost, "/api/v1/appointments", service.ManualEntry{
		PatientName: "Ana García", Date: "2026-10-05", Time: "11:00",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/appointments", service.ManualEntry{
		PatientName: "Ana", Date: "2026-10-05", Time: "11:30",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/appointments?date=2026-10-05", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]models.Appointment](t, rec)
	assert.Len(t, list, 1)

	rec = ts.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/status", map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "completed is terminal")

	rec = ts.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/payment", map[string]string{"method": "cash"})
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decodeBody[models.Appointment](t, rec)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	notes := "reprogramado dos veces"
	rec = ts.do(t, http.MethodPatch, "/api/v1/appointments/"+appt.ID, models.AppointmentUpdate{Notes: &notes})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decodeBody[models.Appointment](t, rec)
	assert.Equal(t, notes, patched.Notes)

	rec = ts.do(t, http.MethodGet, "/api/v1/appointments/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/appointments", service.ManualEntry{
		PatientName: "Carlos Pérez", Date: "2026-10-05", Time: "11:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decodeBody[models.Appointment](t, rec)

	rec = ts.do(t, http.MethodDelete, "/api/v1/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "deletion without confirm=true is rejected")

	rec = ts.do(t, http.MethodDelete, "/api/v1/appointments/"+appt.ID+"?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	schedule := decodeBody[[]struct {
		DayOfWeek   int    `json:"day_of_week"`
		IsEnabled   bool   `json:"is_enabled"`
		ActiveHours []int  `json:"active_hours"`
		StartTime   string `json:"start_time"`
		EndTime     string `json:"end_time"`
	}](t, rec)
	require.Len(t, schedule, 7)
	assert.Equal(t, "09:00", schedule[0].StartTime)
	assert.Equal(t, "18:00", schedule[0].EndTime)

	rec = ts.do(t, http.MethodPost, "/api/v1/schedule/0/toggle/9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decodeBody[struct {
		ActiveHours []int `json:"active_hours"`
	}](t, rec)
	assert.NotContains(t, day.ActiveHours, 9)

	rec = ts.do(t, http.MethodPost, "/api/v1/schedule/9/toggle/9", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody[models.ProfessionalProfile](t, rec)
	assert.Equal(t, "Lic. Gabriel Medina", profile.Name)

	rec = ts.do(t, http.MethodPut, "/api/v1/profile", models.ProfessionalProfile{Name: "Dra. López"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[models.ProfessionalProfile](t, rec)
	assert.Equal(t, "Dra. López", updated.Name)
	assert.Equal(t, "Psicología Clínica", updated.Specialty)
}

func TestPatientEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPut, "/api/v1/patients", models.PatientProfile{
		FirstName: "Ana", LastName: "García", Insurance: "OSDE",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	patient := decodeBody[models.PatientProfile](t, rec)
	require.NotEmpty(t, patient.ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/patients/"+patient.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/patients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]models.PatientProfile](t, rec)
	assert.Len(t, list, 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/patients/"+patient.ID+"/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/patients/missing/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndExports(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/appointments", service.ManualEntry{
		PatientName: "Ana García", Date: "2026-10-05", Time: "11:00", Cost: 15000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decodeBody[models.Appointment](t, rec)
	rec = ts.do(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/payment", map[string]string{"method": "transfer"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/stats/daily?from=2026-10-01&to=2026-10-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[[]models.DayStats](t, rec)
	require.Len(t, stats, 1)
	assert.Equal(t, 15000.0, stats[0].TotalIncome)

	rec = ts.do(t, http.MethodGet, "/api/v1/stats/daily?from=2026-10-31&to=2026-10-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/exports", map[string]string{"from": "2026-10-01", "to": "2026-10-31"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	task := decodeBody[models.ExportTask](t, rec)
	assert.Equal(t, models.TaskStatusQueued, task.Status)

	rec = ts.do(t, http.MethodPost, "/api/v1/exports", map[string]string{"from": "2026-10-31", "to": "2026-10-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
