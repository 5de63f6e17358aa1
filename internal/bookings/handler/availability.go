package handler

import (
	"net/http"
	"slices"
	"time"

	"courtbook/internal/bookings/availability"
	"courtbook/internal/bookings/service"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const maxSlotMinutes = 24 * 60

type AvailabilityResponse struct {
	CourtID     int64               `json:"court_id"`
	Date        string              `json:"date"`
	SlotMinutes int                 `json:"slot_minutes"`
	Open        string              `json:"open"`
	Close       string              `json:"close"`
	Slots       []availability.Slot `json:"slots"`
}

type AvailabilityHandler struct {
	ledger service.Ledger
	hours  availability.BusinessHours
	cfg    *config.Config
	log    *logger.Logger
	now    func() time.Time
}

func NewAvailabilityHandler(ledger service.Ledger, hours availability.BusinessHours, cfg *config.Config) *AvailabilityHandler {
	return &AvailabilityHandler{
		ledger: ledger,
		hours:  hours,
		cfg:    cfg,
		log:    cfg.Log,
		now:    time.Now,
	}
}

// FreeSlots lists the bookable windows of a court for one day. date defaults
// to today and slot_minutes to the configured slot length.
func (h *AvailabilityHandler) FreeSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courtID, err := httputil.PathID(ps, "court_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	day, ok, err := httputil.QueryDate(r, "date", h.cfg.Location)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		day = h.now().In(h.cfg.Location)
	}

	slotMinutes, err := httputil.QueryInt(r, "slot_minutes", h.cfg.SlotMinutes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if slotMinutes <= 0 || slotMinutes > maxSlotMinutes {
		h.writeError(w, apperrors.InvalidInput("slot_minutes must be between 1 and 1440"))
		return
	}

	slots := slices.Collect(h.ledger.FreeSlots(courtID, day, slotMinutes))
	if slots == nil {
		slots = []availability.Slot{}
	}

	if err := httputil.WriteSuccess(w, AvailabilityResponse{
		CourtID:     courtID,
		Date:        day.Format(time.DateOnly),
		SlotMinutes: slotMinutes,
		Open:        h.hours.Open.String(),
		Close:       h.hours.Close.String(),
		Slots:       slots,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "FreeSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "FreeSlots", "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/courts/:court_id/availability", h.FreeSlots)
}
