package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/satohidetada/my-flea-app/internal/api/handlers"
	"github.com/satohidetada/my-flea-app/internal/auth"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/storage"
)

func newUploadRouter(actor models.Actor, secretHash string) (*gin.Engine, *MockBlobStore) {
	gin.SetMode(gin.TestMode)
	blobs := new(MockBlobStore)
	handler := handlers.NewRestUploadHandler(blobs, secretHash)

	r := gin.New()
	g := r.Group("/v1/uploads", withActor(actor))
	g.POST("", handler.Upload)
	g.POST("/presign", handler.Presign)
	return r, blobs
}

func TestRestUploadHandler_Upload(t *testing.T) {
	actor := newActor("u")
	hash, err := auth.HashSecret("s3cret")
	require.NoError(t, err)
	r, blobs := newUploadRouter(actor, hash)
	blobs.On("PutBase64Image", mock.Anything, actor.ID, "aGVsbG8=", "image/png").Return("https://cdn.example/images/a.png", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/uploads", strings.NewReader(`{"key":"s3cret","img":"aGVsbG8=","type":"image/png"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.example/images/a.png", decodeBody(t, w)["url"])
	blobs.AssertExpectations(t)
}

func TestRestUploadHandler_Upload_WrongKey(t *testing.T) {
	actor := newActor("u")
	hash, err := auth.HashSecret("s3cret")
	require.NoError(t, err)
	r, blobs := newUploadRouter(actor, hash)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/uploads", strings.NewReader(`{"key":"guess","img":"aGVsbG8=","type":"image/png"}`)))

	assert.Equal(t, http.StatusForbidden, w.Code)
	blobs.AssertNotCalled(t, "PutBase64Image", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestUploadHandler_Upload_Errors(t *testing.T) {
	actor := newActor("u")
	r, blobs := newUploadRouter(actor, "")
	blobs.On("PutBase64Image", mock.Anything, actor.ID, "big", "image/png").Return("", lifecycle.Errorf(lifecycle.ErrValidation, "image exceeds 10 bytes"))
	blobs.On("PutBase64Image", mock.Anything, actor.ID, "ok", "image/png").Return("", lifecycle.Upstream("put object", assert.AnError))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/uploads", strings.NewReader(`{"img":"big","type":"image/png"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "exceeds")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/uploads", strings.NewReader(`{"img":"ok","type":"image/png"}`)))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	blobs.AssertExpectations(t)
}

func TestRestUploadHandler_Presign(t *testing.T) {
	actor := newActor("u")
	r, blobs := newUploadRouter(actor, "")
	upload := &storage.PresignedUpload{UploadURL: "https://s3/presigned", ObjectKey: "images/x.jpg", ExpiresAt: time.Now().Add(time.Minute)}
	blobs.On("GeneratePresignedPutURL", mock.Anything, actor.ID, "image/jpeg").Return(upload, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/uploads/presign", strings.NewReader(`{"content_type":"image/jpeg"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://s3/presigned", decodeBody(t, w)["upload_url"])
	blobs.AssertExpectations(t)
}
