package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/service"
)

var validate = validator.New()

// MessageHandler handles message ledger requests
type MessageHandler struct {
	service service.MessageService
}

// NewMessageHandler creates a MessageHandler
func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type appendRequest struct {
	Type         string                `json:"type" validate:"required,oneof=text image file emoji audio system"`
	Payload      domain.MessagePayload `json:"payload"`
	ClientTempID *string               `json:"client_temp_id,omitempty" validate:"omitempty,max=64"`
}

// Append handles POST /conversations/:id/messages
func (h *MessageHandler) Append(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req appendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}

	message, err := h.service.Append(service.AppendInput{
		ConversationID: conversationID,
		SenderID:       middleware.GetUserID(c),
		Type:           domain.MessageType(req.Type),
		Payload:        req.Payload,
		ClientTempID:   req.ClientTempID,
	})
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, message, nil)
}

// MarkDelivered handles POST /messages/:id/delivered
func (h *MessageHandler) MarkDelivered(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkDelivered(messageID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"delivered": true}, nil)
}

// MarkRead handles POST /messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(messageID, middleware.GetUserID(c)); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"read": true}, nil)
}

type editRequest struct {
	Payload domain.MessagePayload `json:"payload"`
}

// Edit handles PATCH /messages/:id
func (h *MessageHandler) Edit(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	message, err := h.service.Edit(messageID, req.Payload)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, message, nil)
}

// Delete handles DELETE /messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SoftDelete(messageID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}

// ListRecent handles GET /conversations/:id/messages
func (h *MessageHandler) ListRecent(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	messages, err := h.service.ListRecent(conversationID, intQuery(c, "limit", 50))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, messages, nil)
}

// Versions handles GET /messages/:id/versions
func (h *MessageHandler) Versions(c *gin.Context) {
	messageID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	versions, err := h.service.Versions(messageID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, versions, nil)
}
