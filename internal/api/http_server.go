package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"turnero/internal/config"
	"turnero/internal/database"
	"turnero/internal/domain"
	"turnero/internal/metrics"
	"turnero/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking and admin JSON APIs.
type HTTPServer struct {
	cfg          *config.APIConfig
	slots        *service.SlotService
	bookings     *service.BookingService
	appointments *service.AppointmentService
	schedule     *service.ScheduleService
	patients     *service.PatientService
	exports      domain.ExportEnqueuer
	server       *http.Server
	auth         *HTTPAuth
	logger       *zerolog.Logger
}

func NewHTTPServer(
	cfg *config.APIConfig,
	slots *service.SlotService,
	bookings *service.BookingService,
	appointments *service.AppointmentService,
	schedule *service.ScheduleService,
	patients *service.PatientService,
	exports domain.ExportEnqueuer,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		slots:        slots,
		bookings:     bookings,
		appointments: appointments,
		schedule:     schedule,
		patients:     patients,
		exports:      exports,
		logger:       logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()

	// Client surface.
	mux.HandleFunc("GET /api/v1/slots", srv.handleSlots)
	mux.HandleFunc("POST /api/v1/booking/sessions", srv.handleStartSession)
	mux.HandleFunc("GET /api/v1/booking/sessions/{id}", srv.handleGetSession)
	mux.HandleFunc("POST /api/v1/booking/sessions/{id}/date", srv.handleSelectDate)
	mux.HandleFunc("POST /api/v1/booking/sessions/{id}/time", srv.handleSelectTime)
	mux.HandleFunc("POST /api/v1/booking/sessions/{id}/confirm", srv.handleConfirm)
	mux.HandleFunc("POST /api/v1/booking/sessions/{id}/restart", srv.handleRestart)
	mux.HandleFunc("DELETE /api/v1/booking/sessions/{id}", srv.handleAbandon)

	// Admin surface.
	mux.HandleFunc("GET /api/v1/appointments", srv.handleListAppointments)
	mux.HandleFunc("POST /api/v1/appointments", srv.handleCreateAppointment)
	mux.HandleFunc("GET /api/v1/appointments/{id}", srv.handleGetAppointment)
	mux.HandleFunc("PATCH /api/v1/appointments/{id}", srv.handleUpdateAppointment)
	mux.HandleFunc("POST /api/v1/appointments/{id}/status", srv.handleChangeStatus)
	mux.HandleFunc("POST /api/v1/appointments/{id}/payment", srv.handleRegisterPayment)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", srv.handleDeleteAppointment)

	mux.HandleFunc("GET /api/v1/schedule", srv.handleGetSchedule)
	mux.HandleFunc("PUT /api/v1/schedule", srv.handleSaveSchedule)
	mux.HandleFunc("POST /api/v1/schedule/{day}/toggle/{hour}", srv.handleToggleHour)

	mux.HandleFunc("GET /api/v1/profile", srv.handleGetProfile)
	mux.HandleFunc("PUT /api/v1/profile", srv.handleSaveProfile)

	mux.HandleFunc("GET /api/v1/patients", srv.handleListPatients)
	mux.HandleFunc("PUT /api/v1/patients", srv.handleSavePatient)
	mux.HandleFunc("GET /api/v1/patients/{id}", srv.handleGetPatient)
	mux.HandleFunc("GET /api/v1/patients/{id}/history", srv.handlePatientHistory)

	mux.HandleFunc("GET /api/v1/stats/daily", srv.handleDailyStats)
	mux.HandleFunc("POST /api/v1/exports", srv.handleEnqueueExport)

	mux.HandleFunc("GET /healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the assembled handler chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message, "kind": kind})
}

// writeServiceError maps the service/store error taxonomy onto HTTP.
// Store failures become 503, never an empty-success body.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar),
		errors.Is(err, database.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, "validation", err.Error())
	case errors.Is(err, database.ErrSlotTaken):
		writeError(w, http.StatusConflict, "conflict", "this time was just booked, please choose another")
	case errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, service.ErrWrongStep):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "record no longer exists")
	default:
		s.logger.Error().Err(err).Msg("store unavailable")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable, please retry")
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON body", service.ErrValidation)
	}
	return nil
}
