// utils/avatar_upload.go
package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const MaxAvatarBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string
}

// AvatarStore uploads profile photos to a Cloudflare R2 bucket.
type AvatarStore struct {
	client *s3.Client
	config R2Config
}

func NewAvatarStore(ctx context.Context, cfg R2Config) (*AvatarStore, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("missing required R2 configuration parameters")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)),
		config.WithRetryer(func() aws.Retryer {
			return aws.NopRetryer{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
	})

	// Verify bucket exists and we have permissions
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		if strings.Contains(err.Error(), "NotFound") {
			return nil, fmt.Errorf("bucket %s not found or you don't have permission to access it", cfg.BucketName)
		}
		return nil, fmt.Errorf("failed to access bucket: %w", err)
	}

	return &AvatarStore{client: client, config: cfg}, nil
}

// UploadAvatar stores an image under avatars/{uid}/ and returns its public URL.
func (r *AvatarStore) UploadAvatar(ctx context.Context, uid, originalFileName string, content []byte) (string, error) {
	key, contentType, err := AvatarKey(uid, originalFileName, time.Now())
	if err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", fmt.Errorf("empty upload")
	}
	if len(content) > MaxAvatarBytes {
		return "", fmt.Errorf("image exceeds %d bytes", MaxAvatarBytes)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(r.config.PublicURL, "/"), key), nil
}

// AvatarKey builds the object key and content type for an upload.
func AvatarKey(uid, originalFileName string, now time.Time) (string, string, error) {
	if uid == "" {
		return "", "", fmt.Errorf("uid cannot be empty")
	}
	contentType := imageContentType(originalFileName)
	if contentType == "" {
		return "", "", ErrUnsupportedImage
	}
	ext := strings.ToLower(filepath.Ext(originalFileName))
	return fmt.Sprintf("avatars/%s/%d_%s%s", uid, now.Unix(), uuid.NewString()[:8], ext), contentType, nil
}

func imageContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}
