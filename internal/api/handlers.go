package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"slotdesk/internal/export"
	"slotdesk/internal/models"
	"slotdesk/internal/slots"
)

var errBadRequest = errors.New("bad request")

func (s *HTTPServer) providerID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid provider id", errBadRequest)
	}
	return id, nil
}

func (s *HTTPServer) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", errBadRequest)
	}
	date, err := time.ParseInLocation(models.DateLayout, raw, s.boards.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date format; expected YYYY-MM-DD", errBadRequest)
	}
	return date, nil
}

// target resolves the provider id and the ?date= query of board requests.
func (s *HTTPServer) target(w http.ResponseWriter, r *http.Request) (int64, time.Time, bool) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, time.Time{}, false
	}
	date, err := s.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, time.Time{}, false
	}
	return id, date, true
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scheduleBody struct {
	Days models.WeeklySchedule `json:"days"`
}

func (s *HTTPServer) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weekly, err := s.schedule.GetWeeklySchedule(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleBody{Days: weekly})
}

func (s *HTTPServer) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body scheduleBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.schedule.UpdateWeeklySchedule(r.Context(), id, body.Days); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleGetSchedule(w, r)
}

func (s *HTTPServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := s.schedule.GetSlotSettings(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *HTTPServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var settings models.SlotSettings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.schedule.UpdateSlotSettings(r.Context(), id, settings); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *HTTPServer) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	dates, err := s.schedule.ListBlockedDates(r.Context(), id, q.Get("from"), q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked_dates": dates})
}

func (s *HTTPServer) handleBlockDate(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := s.parseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	if err := s.schedule.BlockDate(r.Context(), id, date, body.Reason); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.BlockedDate{ProviderID: id, Date: date.Format(models.DateLayout), Reason: body.Reason})
}

func (s *HTTPServer) handleUnblockDate(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := s.parseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.schedule.UnblockDate(r.Context(), id, date); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type boardResponse struct {
	ProviderID  int64             `json:"provider_id"`
	Date        string            `json:"date"`
	Slots       []models.TimeSlot `json:"slots"`
	Stats       models.SlotStats  `json:"stats"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func newBoardResponse(b *models.Board) boardResponse {
	return boardResponse{
		ProviderID:  b.ProviderID,
		Date:        b.Date,
		Slots:       b.Slots,
		Stats:       slots.ComputeStats(b.Slots),
		GeneratedAt: b.GeneratedAt,
	}
}

func (s *HTTPServer) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}
	board, err := s.boards.GetBoard(r.Context(), id, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoardResponse(board))
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}
	stats, err := s.boards.Stats(r.Context(), id, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}
	board, err := s.boards.Regenerate(r.Context(), id, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoardResponse(board))
}

func (s *HTTPServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}
	slot, err := s.boards.ToggleSlot(r.Context(), id, date, r.PathValue("slotID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slot": slot})
}

func (s *HTTPServer) handleBlockSlots(w http.ResponseWriter, r *http.Request) {
	s.handleBulk(w, r, true)
}

func (s *HTTPServer) handleUnblockSlots(w http.ResponseWriter, r *http.Request) {
	s.handleBulk(w, r, false)
}

func (s *HTTPServer) handleBulk(w http.ResponseWriter, r *http.Request, block bool) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	run := s.boards.UnblockSlots
	if block {
		run = s.boards.BlockSlots
	}
	res, err := run(r.Context(), id, date, body.IDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	id, date, ok := s.target(w, r)
	if !ok {
		return
	}
	board, err := s.boards.GetBoard(r.Context(), id, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDayWorkbook(&buf, board); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(board)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type createBookingBody struct {
	Date   string `json:"date"`
	SlotID string `json:"slot_id"`
	models.BookingRequest
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createBookingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dateRaw := body.Date
	if dateRaw == "" {
		// Slot ids start with their date.
		dateRaw, _, _ = strings.Cut(body.SlotID, "T")
	}
	date, err := s.parseDate(dateRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.boards.BookSlot(r.Context(), id, date, body.SlotID, body.BookingRequest)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := s.providerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := strconv.ParseInt(r.PathValue("bookingID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var body struct {
		Version int64 `json:"version"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Version <= 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}

	booking, err := s.boards.CancelBooking(r.Context(), id, bookingID, body.Version)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
