package handler

import (
	"net/http"

	apperrors "courtbook/pkg/errors"
	httputil "courtbook/pkg/http"
	"courtbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// MessageFeed is the in-app notification buffer.
type MessageFeed interface {
	Messages() []string
	Clear() int
}

// Channel is an outbound notification sink that can be switched off at runtime.
type Channel interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
}

type ChannelStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type channelUpdate struct {
	Enabled *bool `json:"enabled"`
}

type NotificationHandler struct {
	feed     MessageFeed
	channels []Channel
	log      *logger.Logger
}

func NewNotificationHandler(feed MessageFeed, log *logger.Logger, channels ...Channel) *NotificationHandler {
	return &NotificationHandler{feed: feed, channels: channels, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := httputil.WriteList(w, h.feed.Messages()); err != nil {
		h.log.Error("failed to write list response", "handler", "Notifications", "operation", "WriteList", "error", err)
	}
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	dropped := h.feed.Clear()
	h.log.Info("In-app notifications cleared", "count", dropped)
	if err := httputil.WriteSuccess(w, map[string]int{"cleared": dropped}); err != nil {
		h.log.Error("failed to write response", "handler", "ClearNotifications", "operation", "WriteJSON", "error", err)
	}
}

func (h *NotificationHandler) Channels(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	statuses := make([]ChannelStatus, 0, len(h.channels))
	for _, c := range h.channels {
		statuses = append(statuses, ChannelStatus{Name: c.Name(), Enabled: c.Enabled()})
	}
	if err := httputil.WriteList(w, statuses); err != nil {
		h.log.Error("failed to write list response", "handler", "NotificationChannels", "operation", "WriteList", "error", err)
	}
}

func (h *NotificationHandler) SetChannel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := ps.ByName("channel")
	channel := h.channel(name)
	if channel == nil {
		h.writeError(w, apperrors.NotFoundWithID("notification channel", name, nil))
		return
	}

	var req channelUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Enabled == nil {
		h.writeError(w, apperrors.InvalidInput("enabled is required"))
		return
	}

	channel.SetEnabled(*req.Enabled)
	h.log.Info("Notification channel updated", "channel", name, "enabled", *req.Enabled)
	if err := httputil.WriteSuccess(w, ChannelStatus{Name: name, Enabled: channel.Enabled()}); err != nil {
		h.log.Error("failed to write response", "handler", "SetChannel", "operation", "WriteJSON", "error", err)
	}
}

func (h *NotificationHandler) channel(name string) Channel {
	for _, c := range h.channels {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Notifications", "operation", "WriteError", "error", writeErr)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications", h.List)
	router.DELETE("/api/v1/notifications", h.Clear)
	router.GET("/api/v1/notifications/channels", h.Channels)
	router.PUT("/api/v1/notifications/channels/:channel", h.SetChannel)
}
