package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/service"
	"github.com/joblink/chat-backend/pkg/jwt"
	"github.com/google/uuid"
)

const (
	ctxUserID     = "userID"
	ctxExternalID = "externalID"
)

// JWTAuth verifies the bearer token and resolves the caller into a
// local user row through the identity registry
func JWTAuth(jwtManager *jwt.Manager, identity service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, common.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, common.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(parts[1])
		if err != nil {
			common.ErrorResponse(c, common.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := identity.FindOrCreateFromExternalIdentity(claims.ExternalID, service.ExternalClaims{
			Name: claims.Name,
			Role: claims.Role,
		})
		if err != nil {
			common.ErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxExternalID, user.ExternalID)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or uuid.Nil when the
// request is unauthenticated
func GetUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
