package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kaloriapp/backend/config"
)

// ErrUnsupportedImage is returned for payloads that are not data-URI encoded
// images of a supported type.
var ErrUnsupportedImage = errors.New("unsupported image payload")

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// DecodeDataURI validates and decodes a "data:image/...;base64," payload,
// returning the raw bytes and content type.
func DecodeDataURI(payload string) ([]byte, string, error) {
	header, encoded, ok := strings.Cut(payload, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", ErrUnsupportedImage
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if _, supported := imageExtensions[contentType]; !supported {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, "", ErrUnsupportedImage
	}

	return data, contentType, nil
}

// PhotoService stores uploaded food photos in S3
type PhotoService struct {
	s3Config *config.S3Config
}

// NewPhotoService creates a new PhotoService instance
func NewPhotoService(s3Config *config.S3Config) *PhotoService {
	return &PhotoService{s3Config: s3Config}
}

// StoreFoodPhoto uploads a data-URI encoded photo and returns its public
// URL. Callers treat failures here as non-fatal: a log entry without a photo
// beats a lost log entry.
func (s *PhotoService) StoreFoodPhoto(ctx context.Context, payload string) (string, error) {
	if s.s3Config == nil {
		return "", errors.New("photo storage is not configured")
	}

	data, contentType, err := DecodeDataURI(payload)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("food-photos/%s.%s", uuid.New().String(), imageExtensions[contentType])

	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	log.Printf("[PhotoService] Uploaded food photo: %s", publicURL)

	return publicURL, nil
}
