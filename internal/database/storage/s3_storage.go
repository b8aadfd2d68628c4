package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"supportdesk/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

var errStorageDisabled = errors.New("attachment storage is not configured; set STORAGE.BUCKET and credentials")

// S3Storage 上傳到 S3 相容儲存（AWS、MinIO、R2）
type S3Storage struct {
	bucket        string
	publicBaseURL string
	client        *s3.Client
	logger        *zap.Logger
	disabled      bool
}

func NewS3Storage(ctx context.Context, conf config.Storage, logger *zap.Logger) (*S3Storage, error) {
	logger = logger.With(zap.String("component", "s3-storage"))
	storage := &S3Storage{
		bucket:        strings.TrimSpace(conf.Bucket),
		publicBaseURL: strings.TrimSpace(conf.PublicBaseURL),
		logger:        logger,
	}

	accessKey := strings.TrimSpace(conf.AccessKeyID)
	secretKey := strings.TrimSpace(conf.SecretAccessKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn("storage bucket or credentials are not set; attachment uploads will fail until configured")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if conf.Endpoint != "" {
			return aws.Endpoint{
				URL:           conf.Endpoint,
				PartitionID:   "aws",
				SigningRegion: conf.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(conf.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	storage.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = conf.UsePathStyle
	})
	if storage.publicBaseURL == "" {
		storage.publicBaseURL = defaultPublicBaseURL(conf)
	}
	logger.Info("s3 storage initialized", zap.String("bucket", storage.bucket), zap.String("public_base_url", storage.publicBaseURL))
	return storage, nil
}

func defaultPublicBaseURL(conf config.Storage) string {
	if conf.Endpoint != "" {
		return joinURL(conf.Endpoint, conf.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", conf.Bucket, conf.Region)
}

func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.disabled {
		return errStorageDisabled
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PublicURL(key string) string {
	return joinURL(s.publicBaseURL, key)
}

// Health 啟用時檢查 bucket 是否可存取
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return errStorageDisabled
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
