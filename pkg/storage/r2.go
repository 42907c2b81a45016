package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"poshak-admin-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage holds product media for the local backend mode. The media
// submission stage pushes processed draft images here and associates the
// returned public URLs with the product record.
type R2Storage struct {
	client        *s3.Client
	bucketName    string
	publicURL     string
	uploadTimeout time.Duration
}

func NewR2Storage(ctx context.Context, accountId, accessKey, secretKey, bucketName, publicURL string, uploadTimeout time.Duration) (*R2Storage, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:        client,
		bucketName:    bucketName,
		publicURL:     strings.TrimSuffix(publicURL, "/"),
		uploadTimeout: uploadTimeout,
	}, nil
}

// UploadBuffer uploads a byte slice as a file and returns its public URL.
func (s *R2Storage) UploadBuffer(ctx context.Context, data []byte, contentType string) (string, error) {
	ext := ".bin"
	switch contentType {
	case "image/webp":
		ext = ".webp"
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}

	filename := fmt.Sprintf("products/%s%s", utils.GenerateUUID(), ext)

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(filename),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload buffer to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, filename), nil
}

// DeleteFile deletes a file from R2/S3 by its full URL.
// Only URLs under our public host are accepted; anything else is refused
// rather than guessed at.
func (s *R2Storage) DeleteFile(ctx context.Context, fileURL string) error {
	var key string
	if strings.HasPrefix(fileURL, s.publicURL) {
		key = strings.TrimPrefix(fileURL, s.publicURL)
		key = strings.TrimPrefix(key, "/")
	} else {
		return fmt.Errorf("invalid file URL: domain mismatch")
	}

	if key == "" {
		return fmt.Errorf("invalid file key derived from URL")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from R2: %w", err)
	}

	return nil
}
