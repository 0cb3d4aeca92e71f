package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joblink/chat-backend/internal/handler"
	"github.com/joblink/chat-backend/internal/middleware"
	"github.com/joblink/chat-backend/internal/service"
	"github.com/joblink/chat-backend/pkg/jwt"
)

// Handlers groups everything route registration needs
type Handlers struct {
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Notifications *handler.NotificationHandler
	Identity      *handler.IdentityHandler
	Attachments   *handler.AttachmentHandler
	Assistant     *handler.AssistantHandler
}

// Register wires all API routes
func Register(r *gin.Engine, jwtManager *jwt.Manager, identity service.IdentityService, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager, identity))

	conversations := api.Group("/conversations")
	{
		conversations.POST("/direct", h.Conversations.CreateDirect)
		conversations.POST("/job", h.Conversations.CreateJobChat)
		conversations.GET("", h.Conversations.List)
		conversations.GET("/:id", h.Conversations.Get)
		conversations.GET("/:id/participants", h.Conversations.Participants)
		conversations.POST("/:id/participants", h.Conversations.AddParticipant)
		conversations.DELETE("/:id/participants/:userID", h.Conversations.RemoveParticipant)
		conversations.PATCH("/:id/settings", h.Conversations.UpdateSettings)
		conversations.POST("/:id/close", h.Conversations.Close)
		conversations.POST("/:id/archive", h.Conversations.Archive)
		conversations.DELETE("/:id", h.Conversations.Delete)

		conversations.POST("/:id/messages", h.Messages.Append)
		conversations.GET("/:id/messages", h.Messages.ListRecent)
		if h.Assistant != nil {
			conversations.POST("/:id/assistant", h.Assistant.Reply)
		}
	}

	messages := api.Group("/messages")
	{
		messages.POST("/:id/delivered", h.Messages.MarkDelivered)
		messages.POST("/:id/read", h.Messages.MarkRead)
		messages.PATCH("/:id", h.Messages.Edit)
		messages.DELETE("/:id", h.Messages.Delete)
		messages.GET("/:id/versions", h.Messages.Versions)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notifications.ListLog)
		notifications.GET("/preferences", h.Notifications.ListPreferences)
		notifications.PUT("/preferences", h.Notifications.SetPreference)
	}

	api.POST("/sessions", h.Identity.OpenSession)
	api.POST("/sessions/:id/heartbeat", h.Identity.TouchSession)
	api.DELETE("/sessions/:id", h.Identity.CloseSession)
	api.POST("/device-tokens", h.Identity.RegisterDeviceToken)
	api.DELETE("/device-tokens", h.Identity.RevokeDeviceToken)
	api.GET("/device-tokens/:id/history", h.Identity.TokenHistory)

	if h.Attachments != nil {
		api.POST("/attachments", h.Attachments.Upload)
		api.GET("/attachments/*key", h.Attachments.Download)
	}
}
