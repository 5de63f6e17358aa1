package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/bookings/service"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// WindowValidator applies the caller-side booking window policy.
type WindowValidator interface {
	ValidateWindow(start, end, now time.Time) error
}

type CreateBookingRequest struct {
	UserID    int64     `json:"user_id"`
	CourtID   int64     `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes,omitempty"`
}

type ModifyBookingRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
}

type BookingHandler struct {
	ledger service.Ledger
	window WindowValidator
	cfg    *config.Config
	log    *logger.Logger
	now    func() time.Time
}

func NewBookingHandler(ledger service.Ledger, window WindowValidator, cfg *config.Config) *BookingHandler {
	return &BookingHandler{
		ledger: ledger,
		window: window,
		cfg:    cfg,
		log:    cfg.Log,
		now:    time.Now,
	}
}

// Create prices the requested window and books it. The booking is confirmed
// straight away when auto-confirm is on.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	start := req.StartTime.In(h.cfg.Location)
	end := req.EndTime.In(h.cfg.Location)
	if err := h.checkWindow(start, end); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	price, err := h.ledger.Quote(r.Context(), req.CourtID, start, end)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking := model.NewBooking(req.UserID, req.CourtID, model.StartOfDay(start), start, end, price)
	booking.Notes = req.Notes
	if h.cfg.AutoConfirm {
		booking.Status = model.StatusConfirmed
	}

	created, err := h.ledger.Create(r.Context(), booking)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.PathID(ps, "id")
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	booking, err := h.ledger.GetByID(id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// List filters by the first of user_id, court_id, date or from/to that is
// present; with no filter it returns every booking.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.list(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteList(w, bookings); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) list(r *http.Request) ([]*model.Booking, error) {
	userID, byUser, err := httputil.QueryID(r, "user_id")
	if err != nil {
		return nil, err
	}
	courtID, byCourt, err := httputil.QueryID(r, "court_id")
	if err != nil {
		return nil, err
	}
	day, byDate, err := httputil.QueryDate(r, "date", h.cfg.Location)
	if err != nil {
		return nil, err
	}
	query := r.URL.Query()

	switch {
	case byUser:
		return h.ledger.ByUser(userID), nil
	case byCourt:
		return h.ledger.ByCourt(courtID), nil
	case byDate:
		return h.ledger.ByDate(day), nil
	case query.Has("from") || query.Has("to"):
		from, to, err := httputil.QueryDateRange(r, h.cfg.Location, h.now())
		if err != nil {
			return nil, err
		}
		return h.ledger.ByDateRange(from, to), nil
	default:
		return h.ledger.All(), nil
	}
}

// Modify reschedules a booking. The new window goes through the same policy
// as a fresh booking.
func (h *BookingHandler) Modify(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.PathID(ps, "id")
	if err != nil {
		h.writeError(w, "Modify", err)
		return
	}

	var req ModifyBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Modify", err)
		return
	}

	start := req.StartTime.In(h.cfg.Location)
	end := req.EndTime.In(h.cfg.Location)
	if err := h.checkWindow(start, end); err != nil {
		h.writeError(w, "Modify", err)
		return
	}

	updated, err := h.ledger.Modify(r.Context(), id, service.Changes{
		StartTime: start,
		EndTime:   end,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeError(w, "Modify", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Modify", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.PathID(ps, "id")
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := h.ledger.Cancel(r.Context(), id); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	booking, err := h.ledger.GetByID(id)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Confirm", h.ledger.Confirm)
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Complete", h.ledger.Complete)
}

func (h *BookingHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	name string,
	apply func(ctx context.Context, id int64) (*model.Booking, error),
) {
	id, err := httputil.PathID(ps, "id")
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	booking, err := apply(r.Context(), id)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) checkWindow(start, end time.Time) error {
	if err := h.window.ValidateWindow(start, end, h.now()); err != nil {
		h.log.Warn("Booking window rejected", "start_time", start, "end_time", end, "error", err)
		return apperrors.InvalidBooking("Requested time window is not bookable", errors.Join(bookingserrors.ErrInvalidBooking, err)).
			WithDetails(map[string]any{"error": err.Error()})
	}
	return nil
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/:id", h.Modify)
	router.POST("/api/v1/bookings/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/:id/complete", h.Complete)
}
