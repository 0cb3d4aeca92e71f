package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/repository"
	"github.com/joblink/chat-backend/internal/service"
)

// ConversationHandler handles conversation requests
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler creates a ConversationHandler
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

type createDirectRequest struct {
	PeerID string `json:"peer_id" binding:"required,uuid"`
}

// CreateDirect handles POST /conversations/direct
func (h *ConversationHandler) CreateDirect(c *gin.Context) {
	var req createDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		common.ErrorResponse(c, common.ValidationError("invalid peer id"))
		return
	}

	conversation, err := h.service.FindOrCreateDirect(middleware.GetUserID(c), peerID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, conversation, nil)
}

type createJobChatRequest struct {
	JobID        string   `json:"job_id" binding:"required,uuid"`
	JobTitle     string   `json:"job_title"`
	Participants []string `json:"participants" binding:"required,min=1,dive,uuid"`
}

// CreateJobChat handles POST /conversations/job
func (h *ConversationHandler) CreateJobChat(c *gin.Context) {
	var req createJobChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		common.ErrorResponse(c, common.ValidationError("invalid job id"))
		return
	}
	participants := make([]uuid.UUID, 0, len(req.Participants))
	for _, raw := range req.Participants {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.ErrorResponse(c, common.ValidationError("invalid participant id %q", raw))
			return
		}
		participants = append(participants, id)
	}

	conversation, err := h.service.CreateJobChat(service.CreateJobChatInput{
		JobID:        jobID,
		JobTitle:     req.JobTitle,
		Participants: participants,
	})
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, conversation, nil)
}

// Get handles GET /conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	conversation, err := h.service.Get(conversationID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, conversation, nil)
}

// List handles GET /conversations
func (h *ConversationHandler) List(c *gin.Context) {
	filter := repository.ConversationFilter{
		Type:   domain.ConversationType(c.Query("type")),
		Status: domain.ConversationStatus(c.Query("status")),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 20),
	}

	conversations, total, err := h.service.ListByParticipant(middleware.GetUserID(c), filter)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, conversations, &common.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// Participants handles GET /conversations/:id/participants
func (h *ConversationHandler) Participants(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	participants, err := h.service.Participants(conversationID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, participants, nil)
}

type addParticipantRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// AddParticipant handles POST /conversations/:id/participants
func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.ErrorResponse(c, common.ValidationError("invalid user id"))
		return
	}
	if err := h.service.AddParticipant(conversationID, userID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"added": true}, nil)
}

// RemoveParticipant handles DELETE /conversations/:id/participants/:userID
func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if err := h.service.RemoveParticipant(conversationID, userID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"removed": true}, nil)
}

// UpdateSettings handles PATCH /conversations/:id/settings
func (h *ConversationHandler) UpdateSettings(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var settings domain.ParticipantSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		common.ErrorResponse(c, common.ValidationError("%v", err))
		return
	}
	if err := h.service.UpdateSettings(conversationID, middleware.GetUserID(c), settings); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"updated": true}, nil)
}

// Close handles POST /conversations/:id/close
func (h *ConversationHandler) Close(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Close(conversationID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"closed": true}, nil)
}

// Archive handles POST /conversations/:id/archive
func (h *ConversationHandler) Archive(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Archive(conversationID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"archived": true}, nil)
}

// Delete handles DELETE /conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.SoftDelete(conversationID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}
