package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/satohidetada/my-flea-app/internal/auth"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/storage"
)

// RestUploadHandler proxies image uploads to the blob store.
type RestUploadHandler struct {
	blobStore  storage.IBlobStore
	secretHash string
}

// NewRestUploadHandler creates a new RestUploadHandler. An empty secretHash
// disables the shared-secret check.
func NewRestUploadHandler(blobStore storage.IBlobStore, secretHash string) *RestUploadHandler {
	return &RestUploadHandler{blobStore: blobStore, secretHash: secretHash}
}

// UploadRequest is the body of POST /v1/uploads.
type UploadRequest struct {
	Key  string `json:"key"`  // shared secret
	Img  string `json:"img"`  // base64 data or data URL
	Type string `json:"type"` // content type
}

// Upload handles POST /v1/uploads
func (h *RestUploadHandler) Upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if h.secretHash != "" && !auth.VerifySecret(req.Key, h.secretHash) {
		respondError(c, lifecycle.Errorf(lifecycle.ErrPermissionDenied, "invalid upload key"))
		return
	}

	url, err := h.blobStore.PutBase64Image(c.Request.Context(), actor.ID, req.Img, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Presign handles POST /v1/uploads/presign
func (h *RestUploadHandler) Presign(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req struct {
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	upload, err := h.blobStore.GeneratePresignedPutURL(c.Request.Context(), actor.ID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
