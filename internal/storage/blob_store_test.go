package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satohidetada/my-flea-app/internal/config"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		f.body, _ = io.ReadAll(params.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(putter objectPutter, cfg *config.Config) *s3BlobStore {
	return &s3BlobStore{cfg: cfg, putter: putter, maxBytes: 1024}
}

func TestDecodeImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)

	data, ct, err := DecodeImage(encoded, "image/png", 1024)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", ct)

	data, ct, err = DecodeImage("data:image/png;base64,"+encoded, "", 1024)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, "image/png", ct)
}

func TestDecodeImage_Rejects(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	cases := map[string]struct {
		data, contentType string
		max               int
	}{
		"empty":             {"", "image/png", 1024},
		"unsupported type":  {encoded, "application/pdf", 1024},
		"bad base64":        {"!!!not-base64!!!", "image/png", 1024},
		"too large":         {encoded, "image/png", 10},
		"type mismatch":     {encoded, "image/jpeg", 1024},
		"not an image":      {base64.StdEncoding.EncodeToString([]byte("hello world")), "image/png", 1024},
		"malformed dataurl": {"data:image/png;base64" + encoded, "", 1024},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeImage(tc.data, tc.contentType, tc.max)
			require.Error(t, err)
			assert.ErrorIs(t, err, lifecycle.ErrValidation)
		})
	}
}

func TestPutBase64Image(t *testing.T) {
	putter := &fakePutter{}
	store := newTestStore(putter, &config.Config{AwsS3Bucket: "nomi-images", AwsRegion: "ap-northeast-1"})
	owner := utils.NewSixID()

	url, err := store.PutBase64Image(context.Background(), owner, base64.StdEncoding.EncodeToString(pngBytes), "image/png")
	require.NoError(t, err)

	require.NotNil(t, putter.input)
	key := *putter.input.Key
	assert.True(t, strings.HasPrefix(key, "images/"+owner.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "nomi-images", *putter.input.Bucket)
	assert.Equal(t, "image/png", *putter.input.ContentType)
	assert.Equal(t, pngBytes, putter.body)
	assert.Equal(t, "https://nomi-images.s3.ap-northeast-1.amazonaws.com/"+key, url)
}

func TestPutBase64Image_UpstreamFailure(t *testing.T) {
	putter := &fakePutter{err: errors.New("connection reset")}
	store := newTestStore(putter, &config.Config{AwsS3Bucket: "b"})

	_, err := store.PutBase64Image(context.Background(), utils.NewSixID(), base64.StdEncoding.EncodeToString(pngBytes), "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecycle.ErrUpstream)
}

func TestPutBase64Image_ValidationSkipsUpload(t *testing.T) {
	putter := &fakePutter{}
	store := newTestStore(putter, &config.Config{AwsS3Bucket: "b"})

	_, err := store.PutBase64Image(context.Background(), utils.NewSixID(), "not base64", "image/png")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	assert.Nil(t, putter.input)
}

func TestPublicURL(t *testing.T) {
	store := newTestStore(nil, &config.Config{AwsS3Bucket: "b", ImageBaseURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/images/x.png", store.PublicURL("images/x.png"))

	store = newTestStore(nil, &config.Config{AwsS3Bucket: "b", AwsS3Endpoint: "http://localhost:9000"})
	assert.Equal(t, "http://localhost:9000/b/images/x.png", store.PublicURL("images/x.png"))
}

func TestGeneratePresignedPutURL_RejectsType(t *testing.T) {
	store := newTestStore(nil, &config.Config{AwsS3Bucket: "b"})
	_, err := store.GeneratePresignedPutURL(context.Background(), utils.NewSixID(), "text/html")
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
}

func TestNewS3BlobStore_Presign(t *testing.T) {
	cfg := &config.Config{
		AwsAccessKeyID:     "AKIDEXAMPLE",
		AwsSecretAccessKey: "secret",
		AwsRegion:          "ap-northeast-1",
		AwsS3Bucket:        "nomi-images",
		ImageMaxSizeMB:     1,
	}
	store, err := NewS3BlobStore(context.Background(), cfg)
	require.NoError(t, err)

	upload, err := store.GeneratePresignedPutURL(context.Background(), utils.NewSixID(), "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, upload.UploadURL, "nomi-images")
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature")
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".jpg"))
	assert.Contains(t, upload.PublicURL, upload.ObjectKey)
}
