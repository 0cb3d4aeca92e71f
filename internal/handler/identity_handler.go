package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/service"
)

// IdentityHandler handles session and device token requests
type IdentityHandler struct {
	service service.IdentityService
}

// NewIdentityHandler creates an IdentityHandler
func NewIdentityHandler(service service.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

type openSessionRequest struct {
	DeviceInfo string `json:"device_info"`
}

// OpenSession handles POST /sessions
func (h *IdentityHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	session, err := h.service.RecordSession(c.Request.Context(), middleware.GetUserID(c), req.DeviceInfo)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, session, nil)
}

// TouchSession handles POST /sessions/:id/heartbeat
func (h *IdentityHandler) TouchSession(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.TouchSession(sessionID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"touched": true}, nil)
}

// CloseSession handles DELETE /sessions/:id
func (h *IdentityHandler) CloseSession(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.CloseSession(c.Request.Context(), sessionID, domain.DisconnectLogout); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"closed": true}, nil)
}

type registerTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

// RegisterDeviceToken handles POST /device-tokens
func (h *IdentityHandler) RegisterDeviceToken(c *gin.Context) {
	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	token, err := h.service.RegisterDeviceToken(
		middleware.GetUserID(c), req.Token, domain.DevicePlatform(req.Platform))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, token, nil)
}

type revokeTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RevokeDeviceToken handles DELETE /device-tokens
func (h *IdentityHandler) RevokeDeviceToken(c *gin.Context) {
	var req revokeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	if err := h.service.RevokeDeviceToken(middleware.GetUserID(c), req.Token); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"revoked": true}, nil)
}

// TokenHistory handles GET /device-tokens/:id/history
func (h *IdentityHandler) TokenHistory(c *gin.Context) {
	tokenID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.TokenHistory(tokenID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, history, nil)
}
