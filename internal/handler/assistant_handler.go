package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/service"
)

// AssistantHandler posts generated replies into a conversation
type AssistantHandler struct {
	service         service.AssistantService
	assistantUserID uuid.UUID
}

// NewAssistantHandler creates an AssistantHandler bound to the bot user
func NewAssistantHandler(service service.AssistantService, assistantUserID uuid.UUID) *AssistantHandler {
	return &AssistantHandler{service: service, assistantUserID: assistantUserID}
}

type assistantReplyRequest struct {
	Query string `json:"query" binding:"required"`
}

// Reply handles POST /conversations/:id/assistant
func (h *AssistantHandler) Reply(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req assistantReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}

	message, err := h.service.Reply(c.Request.Context(), conversationID, h.assistantUserID, req.Query)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, message, nil)
}
