package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// ImageStore persists uploaded recipe images and returns the address the
// image is served from.
type ImageStore interface {
	Save(ctx context.Context, img *Image) (string, error)
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

var imageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURI parses "data:image/png;base64,...." into an Image
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, newValidationError("image", "must be a base64 encoded data URI")
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := imageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, newValidationError("image", fmt.Sprintf("unsupported image type %q", contentType))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, newValidationError("image", "invalid base64 payload")
	}

	return &Image{Data: data, Ext: ext, ContentType: contentType}, nil
}

func imageKey(img *Image) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.New().String(), img.Ext)
}

// S3ImageStore uploads images to an S3 bucket
type S3ImageStore struct {
	s3  *config.S3Config
	log *logger.Logger
}

func NewS3ImageStore(s3Config *config.S3Config, log *logger.Logger) *S3ImageStore {
	if log == nil {
		log = logger.Nop()
	}
	return &S3ImageStore{s3: s3Config, log: log}
}

// Save uploads image data to S3 and returns the public URL
func (s *S3ImageStore) Save(ctx context.Context, img *Image) (string, error) {
	key := imageKey(img)
	_, err := s.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.s3.PublicURL(key)
	s.log.Debug("Uploaded image to S3", "url", publicURL)
	return publicURL, nil
}

// LocalImageStore writes images below a media directory served by the API
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{dir: dir, baseURL: baseURL}
}

func (s *LocalImageStore) Save(ctx context.Context, img *Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := imageKey(img)
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(target, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.baseURL + path.Clean(key), nil
}
