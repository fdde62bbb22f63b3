package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"slotdesk/internal/config"
	"slotdesk/internal/database"
	"slotdesk/internal/domain"
	"slotdesk/internal/service"
	"slotdesk/internal/slots"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the schedule and slot board commands over HTTP.
type HTTPServer struct {
	cfg      config.APIConfig
	schedule domain.ScheduleService
	boards   domain.BoardService
	logger   *zerolog.Logger
	server   *http.Server
	handler  http.Handler
}

func NewHTTPServer(cfg config.APIConfig, schedule domain.ScheduleService, boards domain.BoardService, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{cfg: cfg, schedule: schedule, boards: boards, logger: logger}

	mux := http.NewServeMux()
	srv.routes(mux)

	srv.handler = requestIDMiddleware(
		loggingMiddleware(logger,
			rateLimitMiddleware(newRateLimiter(cfg.RateLimit), mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	const p = "/api/v1/providers/{id}"
	mux.HandleFunc("GET "+p+"/schedule", s.handleGetSchedule)
	mux.HandleFunc("PUT "+p+"/schedule", s.handlePutSchedule)
	mux.HandleFunc("GET "+p+"/settings", s.handleGetSettings)
	mux.HandleFunc("PUT "+p+"/settings", s.handlePutSettings)
	mux.HandleFunc("GET "+p+"/blocked-dates", s.handleListBlockedDates)
	mux.HandleFunc("POST "+p+"/blocked-dates/{date}", s.handleBlockDate)
	mux.HandleFunc("DELETE "+p+"/blocked-dates/{date}", s.handleUnblockDate)

	mux.HandleFunc("GET "+p+"/slots", s.handleGetSlots)
	mux.HandleFunc("GET "+p+"/slots/stats", s.handleStats)
	mux.HandleFunc("GET "+p+"/slots/export", s.handleExport)
	mux.HandleFunc("POST "+p+"/slots/regenerate", s.handleRegenerate)
	mux.HandleFunc("POST "+p+"/slots/block", s.handleBlockSlots)
	mux.HandleFunc("POST "+p+"/slots/unblock", s.handleUnblockSlots)
	mux.HandleFunc("POST "+p+"/slots/{slotID}/toggle", s.handleToggle)

	mux.HandleFunc("POST "+p+"/bookings", s.handleCreateBooking)
	mux.HandleFunc("POST "+p+"/bookings/{bookingID}/cancel", s.handleCancelBooking)
}

// Handler is the fully wrapped handler, exposed for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, slots.ErrInvalidConfig),
		errors.Is(err, service.ErrInvalidBooking):
		return http.StatusBadRequest
	case errors.Is(err, slots.ErrSlotNotFound),
		errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, slots.ErrSlotBooked),
		errors.Is(err, slots.ErrSlotNotAvailable),
		errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, service.ErrBookingCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestID(r.Context())).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
