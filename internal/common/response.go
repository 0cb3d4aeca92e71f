package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkglogger "github.com/joblink/chat-backend/pkg/logger"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data  interface{} `json:"data"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination and additional metadata
type Meta struct {
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
	Total int64 `json:"total,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// ErrorResponse maps an error to an HTTP response. AppError codes keep
// their stable code and message; everything else is logged and rendered
// as a generic internal failure.
func ErrorResponse(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		pkglogger.GetLogger().Error().Err(err).
			Str("path", c.FullPath()).
			Msg("unhandled error")
		appErr = InternalError(err)
	}

	if appErr.Code == CodeInternal && appErr.Err != nil {
		pkglogger.GetLogger().Error().Err(appErr.Err).
			Str("path", c.FullPath()).
			Msg("internal error")
	}

	c.JSON(httpStatus(appErr.Code), APIResponse{
		Error: &ErrorInfo{Code: appErr.Code, Message: appErr.Message},
	})
}

func httpStatus(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotParticipant:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
