package handler

import (
	"net/http"
	"time"

	"courtbook/internal/reports/service"
	"courtbook/pkg/config"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ReportHandler struct {
	service service.ReportService
	cfg     *config.Config
	log     *logger.Logger
	now     func() time.Time
}

func NewReportHandler(service service.ReportService, cfg *config.Config) *ReportHandler {
	return &ReportHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
		now:     time.Now,
	}
}

func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, to, err := httputil.QueryDateRange(r, h.cfg.Location, h.now())
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}

	if err := httputil.WriteSuccess(w, h.service.Revenue(from, to)); err != nil {
		h.log.Error("failed to write success response", "handler", "Revenue", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, to, err := httputil.QueryDateRange(r, h.cfg.Location, h.now())
	if err != nil {
		h.writeError(w, "Daily", err)
		return
	}

	if err := httputil.WriteList(w, h.service.DailyStats(from, to)); err != nil {
		h.log.Error("failed to write list response", "handler", "Daily", "operation", "WriteList", "error", err)
	}
}

func (h *ReportHandler) Courts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, to, err := httputil.QueryDateRange(r, h.cfg.Location, h.now())
	if err != nil {
		h.writeError(w, "Courts", err)
		return
	}

	if err := httputil.WriteList(w, h.service.CourtUsage(from, to)); err != nil {
		h.log.Error("failed to write list response", "handler", "Courts", "operation", "WriteList", "error", err)
	}
}

func (h *ReportHandler) Upcoming(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := httputil.PathID(ps, "user_id")
	if err != nil {
		h.writeError(w, "Upcoming", err)
		return
	}

	if err := httputil.WriteList(w, h.service.UpcomingForUser(userID, h.now())); err != nil {
		h.log.Error("failed to write list response", "handler", "Upcoming", "operation", "WriteList", "error", err)
	}
}

func (h *ReportHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReportHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reports/revenue", h.Revenue)
	router.GET("/api/v1/reports/daily", h.Daily)
	router.GET("/api/v1/reports/courts", h.Courts)
	router.GET("/api/v1/users/:user_id/upcoming", h.Upcoming)
}
