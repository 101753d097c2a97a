package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oggyb/muzz-match/internal/config"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// Service hands out presigned S3 URLs for chat attachments. Messages only
// carry the object key; bytes never pass through this server.
type Service struct {
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	expiry    time.Duration
	now       func() time.Time
}

// NewService loads AWS credentials the default way (env, shared config,
// instance role). An empty bucket yields a Service that reports Unavailable.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg.Media.Bucket == "" {
		return NewWithAWSConfig(aws.Config{}, cfg), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Media.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAWSConfig(awsCfg, cfg), nil
}

// NewWithAWSConfig builds the Service on an explicit AWS config.
func NewWithAWSConfig(awsCfg aws.Config, cfg *config.Config) *Service {
	s := &Service{
		bucket: cfg.Media.Bucket,
		prefix: cfg.Media.Prefix,
		expiry: cfg.Media.URLExpiry,
		now:    time.Now,
	}
	if s.expiry <= 0 {
		s.expiry = 5 * time.Minute
	}
	if s.bucket != "" {
		s.presigner = s3.NewPresignClient(s3.NewFromConfig(awsCfg))
	}
	return s
}

// Enabled reports whether a bucket is configured.
func (s *Service) Enabled() bool { return s.presigner != nil }

// UploadURL returns a presigned PUT URL and the key the client should store
// in the message's media field.
func (s *Service) UploadURL(ctx context.Context, userID, fileName, contentType string) (string, string, error) {
	if !s.Enabled() {
		return "", "", svcErr.Unavailable("media storage is not configured")
	}
	name := path.Base(strings.TrimSpace(fileName))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", "", svcErr.InvalidArgument("bad file name")
	}
	if strings.TrimSpace(contentType) == "" {
		return "", "", svcErr.InvalidArgument("contentType is required")
	}

	key := s.prefix + userID + "/" + s.now().UTC().Format("20060102150405") + "-" + name
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return req.URL, key, nil
}

// ReadURL returns a presigned GET URL for a key issued by UploadURL.
func (s *Service) ReadURL(ctx context.Context, key string) (string, error) {
	if !s.Enabled() {
		return "", svcErr.Unavailable("media storage is not configured")
	}
	if !strings.HasPrefix(key, s.prefix) || strings.Contains(key, "..") {
		return "", svcErr.InvalidArgument("bad media key")
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign read: %w", err)
	}
	return req.URL, nil
}
