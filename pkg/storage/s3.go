package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/labbuddy/platform/pkg/common/config"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/logger"
)

var extensions = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/tiff":      "tif",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

// S3Gateway stores report documents in S3. When the bucket is not
// configured the gateway stays constructible and every Upload fails with
// a config error; Presign degrades to "no reference".
type S3Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
}

func NewS3Gateway(ctx context.Context, cfg *config.Config) (*S3Gateway, error) {
	gw := &S3Gateway{
		bucket: cfg.AWSBucketName,
		region: cfg.AWSRegion,
	}
	if cfg.AWSBucketName == "" {
		logger.Log.Warn("S3 bucket not configured, file uploads disabled")
		return gw, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	opts := s3.Options{
		Region:       cfg.AWSRegion,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		UsePathStyle: cfg.AWSUsePathStyle,
	}
	if cfg.AWSEndpoint != "" {
		opts.BaseEndpoint = &cfg.AWSEndpoint
	}

	gw.client = s3.New(opts)
	gw.presign = s3.NewPresignClient(gw.client)
	logger.Log.WithField("bucket", cfg.AWSBucketName).Info("S3 gateway initialized")
	return gw, nil
}

func (g *S3Gateway) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if g.client == nil || g.bucket == "" {
		return "", errs.Config("S3 configuration not available")
	}

	ext, ok := extensions[contentType]
	if !ok {
		ext = "bin"
	}
	key := fmt.Sprintf("%s/%s.%s", folder, uuid.New().String(), ext)

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &g.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", errs.Storage("failed to upload file", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", g.bucket, g.region, key), nil
}

func (g *S3Gateway) Delete(ctx context.Context, fileURL string) bool {
	if g.client == nil || g.bucket == "" {
		return false
	}

	key := g.keyFromURL(fileURL)
	if key == "" {
		return false
	}

	if _, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &g.bucket,
		Key:    &key,
	}); err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Failed to delete object")
		return false
	}
	return true
}

func (g *S3Gateway) Presign(ctx context.Context, fileURL string, expiry time.Duration) (string, bool) {
	if g.presign == nil || g.bucket == "" {
		return "", false
	}

	key := g.keyFromURL(fileURL)
	if key == "" {
		return "", false
	}

	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &g.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Failed to presign object")
		return "", false
	}
	return req.URL, true
}

func (g *S3Gateway) keyFromURL(fileURL string) string {
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", g.bucket, g.region)
	if !strings.HasPrefix(fileURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(fileURL, prefix)
}
