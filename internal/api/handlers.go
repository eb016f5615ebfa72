package api

import (
	"fmt"
	"net/http"
	"time"

	"turnero/internal/models"
	"turnero/internal/service"
)

// --- client surface ---

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	slots, err := s.slots.ComputeAvailableSlots(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}

func (s *HTTPServer) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.bookings.StartSession(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.bookings.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	session, slots, err := s.bookings.SelectDate(r.Context(), r.PathValue("id"), req.Date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session, "slots": slots})
}

func (s *HTTPServer) handleSelectTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time string `json:"time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	session, err := s.bookings.SelectTime(r.Context(), r.PathValue("id"), req.Time)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var details service.ContactDetails
	if err := decodeJSON(r, &details); err != nil {
		s.writeServiceError(w, err)
		return
	}
	appt, err := s.bookings.Confirm(r.Context(), r.PathValue("id"), details)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleRestart(w http.ResponseWriter, r *http.Request) {
	session, err := s.bookings.Restart(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.bookings.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- admin surface ---

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		appts []*models.Appointment
		err   error
	)
	switch {
	case query.Get("date") != "":
		appts, err = s.appointments.ListByDate(r.Context(), query.Get("date"))
	case query.Get("patient_id") != "":
		appts, err = s.appointments.ListByPatient(r.Context(), query.Get("patient_id"))
	default:
		appts, err = s.appointments.List(r.Context())
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var entry service.ManualEntry
	if err := decodeJSON(r, &entry); err != nil {
		s.writeServiceError(w, err)
		return
	}
	appt, err := s.appointments.CreateManual(r.Context(), entry)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := s.appointments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var upd models.AppointmentUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeServiceError(w, err)
		return
	}
	appt, err := s.appointments.UpdateFields(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	appt, err := s.appointments.ChangeStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	appt, err := s.appointments.RegisterPayment(r.Context(), r.PathValue("id"), req.Method)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Deletion is irreversible, so the caller has to spell it out.
func (s *HTTPServer) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		s.writeServiceError(w, fmt.Errorf("%w: deletion requires confirm=true", service.ErrValidation))
		return
	}
	if err := s.appointments.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.schedule.GetSchedule(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleView(schedule))
}

func (s *HTTPServer) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule []models.WorkingHours
	if err := decodeJSON(r, &schedule); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := s.schedule.SaveSchedule(r.Context(), schedule); err != nil {
		s.writeServiceError(w, err)
		return
	}
	saved, err := s.schedule.GetSchedule(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleView(saved))
}

func (s *HTTPServer) handleToggleHour(w http.ResponseWriter, r *http.Request) {
	var day, hour int
	if _, err := fmt.Sscanf(r.PathValue("day"), "%d", &day); err != nil {
		s.writeServiceError(w, fmt.Errorf("%w: day must be a number", service.ErrValidation))
		return
	}
	if _, err := fmt.Sscanf(r.PathValue("hour"), "%d", &hour); err != nil {
		s.writeServiceError(w, fmt.Errorf("%w: hour must be a number", service.ErrValidation))
		return
	}
	updated, err := s.schedule.ToggleHour(r.Context(), day, hour)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dayView(*updated))
}

// dayView adds the derived opening interval next to the raw hour list.
type workingDayView struct {
	models.WorkingHours
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

func dayView(d models.WorkingHours) workingDayView {
	return workingDayView{WorkingHours: d, StartTime: d.StartTime(), EndTime: d.EndTime()}
}

func scheduleView(schedule []models.WorkingHours) []workingDayView {
	views := make([]workingDayView, 0, len(schedule))
	for _, d := range schedule {
		views = append(views, dayView(d))
	}
	return views
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.schedule.GetProfile(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.ProfessionalProfile
	if err := decodeJSON(r, &profile); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := s.schedule.SaveProfile(r.Context(), profile); err != nil {
		s.writeServiceError(w, err)
		return
	}
	saved, err := s.schedule.GetProfile(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *HTTPServer) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.patients.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (s *HTTPServer) handleSavePatient(w http.ResponseWriter, r *http.Request) {
	var patient models.PatientProfile
	if err := decodeJSON(r, &patient); err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := s.patients.Save(r.Context(), &patient); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *HTTPServer) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := s.patients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (s *HTTPServer) handlePatientHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.patients.History(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *HTTPServer) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	stats, err := s.appointments.DailyStats(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	for _, d := range []string{req.From, req.To} {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			s.writeServiceError(w, fmt.Errorf("%w: dates must be YYYY-MM-DD", service.ErrValidation))
			return
		}
	}
	if req.To < req.From {
		s.writeServiceError(w, fmt.Errorf("%w: range ends before it starts", service.ErrValidation))
		return
	}
	task, err := s.exports.EnqueueExport(r.Context(), req.From, req.To)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}
