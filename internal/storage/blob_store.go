package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/satohidetada/my-flea-app/internal/config"
	"github.com/satohidetada/my-flea-app/internal/lifecycle"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// allowedImageTypes maps accepted content types to object key extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// IBlobStore stores item and profile images.
type IBlobStore interface {
	PutBase64Image(ctx context.Context, ownerID utils.SixID, encoded, contentType string) (string, error)
	GeneratePresignedPutURL(ctx context.Context, ownerID utils.SixID, contentType string) (*PresignedUpload, error)
}

// PresignedUpload is a direct upload slot.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3BlobStore implements IBlobStore on S3 or an S3-compatible store.
type s3BlobStore struct {
	cfg       *config.Config
	putter    objectPutter
	presigner *s3.PresignClient
	maxBytes  int
}

// NewS3BlobStore creates a blob store from the AWS settings in cfg.
func NewS3BlobStore(ctx context.Context, cfg *config.Config) (IBlobStore, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AwsS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AwsS3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3BlobStore{
		cfg:       cfg,
		putter:    s3Client,
		presigner: s3.NewPresignClient(s3Client),
		maxBytes:  cfg.ImageMaxBytes(),
	}, nil
}

// PutBase64Image decodes a base64 image (optionally a data URL) and stores it.
// It returns the public URL of the stored object.
func (s *s3BlobStore) PutBase64Image(ctx context.Context, ownerID utils.SixID, encoded, contentType string) (string, error) {
	data, contentType, err := DecodeImage(encoded, contentType, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := s.objectKey(ownerID, contentType)
	_, err = s.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.AwsS3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", lifecycle.Upstream("put object "+key, err)
	}
	return s.PublicURL(key), nil
}

// GeneratePresignedPutURL creates a pre-signed URL for uploading an image directly.
func (s *s3BlobStore) GeneratePresignedPutURL(ctx context.Context, ownerID utils.SixID, contentType string) (*PresignedUpload, error) {
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, lifecycle.Errorf(lifecycle.ErrValidation, "unsupported content type %q", contentType)
	}
	key := s.objectKey(ownerID, contentType)
	expiration := s.cfg.PresignTTL
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return nil, lifecycle.Upstream("presign "+key, err)
	}
	return &PresignedUpload{
		UploadURL: req.URL,
		ObjectKey: key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().Add(expiration).UTC(),
	}, nil
}

// PublicURL is where a stored object can be fetched.
func (s *s3BlobStore) PublicURL(key string) string {
	if base := strings.TrimRight(s.cfg.ImageBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if s.cfg.AwsS3Endpoint != "" {
		return strings.TrimRight(s.cfg.AwsS3Endpoint, "/") + "/" + s.cfg.AwsS3Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.AwsS3Bucket, s.cfg.AwsRegion, key)
}

func (s *s3BlobStore) objectKey(ownerID utils.SixID, contentType string) string {
	return fmt.Sprintf("images/%s/%s.%s", ownerID.String(), uuid.NewString(), allowedImageTypes[contentType])
}

// DecodeImage decodes base64 image data and checks its size and type.
// A data URL prefix overrides contentType. The bytes must look like the
// declared image type.
func DecodeImage(encoded, contentType string, maxBytes int) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 {
			return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "malformed data URL")
		}
		header := strings.TrimPrefix(encoded[:comma], "data:")
		contentType = strings.TrimSuffix(header, ";base64")
		encoded = encoded[comma+1:]
	}
	if encoded == "" {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "image data is empty")
	}
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "unsupported content type %q", contentType)
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+3 {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "image exceeds %d bytes", maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "image is not valid base64")
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "image exceeds %d bytes", maxBytes)
	}
	if detected := http.DetectContentType(data); detected != contentType {
		return nil, "", lifecycle.Errorf(lifecycle.ErrValidation, "image content is %s, not %s", detected, contentType)
	}
	return data, contentType, nil
}
