package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/repository"
	"github.com/joblink/chat-backend/internal/service"
)

// NotificationHandler handles preference and notification log requests
type NotificationHandler struct {
	catalog service.CatalogService
	logs    repository.NotificationLogRepository
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(catalog service.CatalogService, logs repository.NotificationLogRepository) *NotificationHandler {
	return &NotificationHandler{catalog: catalog, logs: logs}
}

// ListPreferences handles GET /notifications/preferences
func (h *NotificationHandler) ListPreferences(c *gin.Context) {
	prefs, err := h.catalog.ListPreferences(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, prefs, nil)
}

type setPreferenceRequest struct {
	EventKey string   `json:"event_key" binding:"required"`
	AppID    string   `json:"app_id" binding:"required"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// SetPreference handles PUT /notifications/preferences
func (h *NotificationHandler) SetPreference(c *gin.Context) {
	var req setPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}

	var channels domain.ChannelSet
	for _, raw := range req.Channels {
		channels = append(channels, domain.Channel(raw))
	}

	pref, err := h.catalog.SetPreference(middleware.GetUserID(c), req.EventKey, req.AppID, service.PreferenceUpdate{
		Enabled:  req.Enabled,
		Channels: channels,
	})
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, pref, nil)
}

// ListLog handles GET /notifications
func (h *NotificationHandler) ListLog(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	logs, total, err := h.logs.ListByRecipient(middleware.GetUserID(c), page, limit)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, logs, &common.Meta{Page: page, Limit: limit, Total: total})
}
