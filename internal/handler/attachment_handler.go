package handler

import (
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/joblink/chat-backend/internal/common"
	"github.com/joblink/chat-backend/internal/domain"
	"github.com/joblink/chat-backend/pkg/storage"
)

// AttachmentHandler uploads and serves message attachments through the
// opaque blob store
type AttachmentHandler struct {
	store storage.BlobStore
}

// NewAttachmentHandler creates an AttachmentHandler
func NewAttachmentHandler(store storage.BlobStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Upload handles POST /attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, common.ValidationError("missing file field"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		common.ErrorResponse(c, common.ValidationError("empty filename"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.GenerateKey("attachments", filepath.Base(header.Filename))
	ref, err := h.store.Put(c.Request.Context(), key, file, contentType, header.Size)
	if err != nil {
		common.ErrorResponse(c, common.InternalError(err))
		return
	}

	common.SuccessResponse(c, domain.AttachmentRef{
		Key:         ref,
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
	}, nil)
}

// Download handles GET /attachments/*key
func (h *AttachmentHandler) Download(c *gin.Context) {
	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		common.ErrorResponse(c, common.ValidationError("missing attachment key"))
		return
	}

	body, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		common.ErrorResponse(c, common.NotFoundError("attachment"))
		return
	}
	defer body.Close()

	c.Status(200)
	_, _ = io.Copy(c.Writer, body)
}
