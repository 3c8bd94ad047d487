package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	sc "github.com/dmitrijs2005/folio/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	mediaKeyPrefix = "blog/"
	presignExpires = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// MediaService hands out presigned S3 URLs for blog media. It is disabled
// when no bucket is configured.
type MediaService struct {
	config *sc.Config
}

func NewMediaService(config *sc.Config) *MediaService {
	return &MediaService{config: config}
}

func (s *MediaService) Enabled() bool {
	return s.config.S3Bucket != ""
}

// GetRandomStorageKey returns a fresh date-partitioned object key.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("%s%d/%d/%d/%v", mediaKeyPrefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

func validMediaKey(key string) bool {
	return strings.HasPrefix(key, mediaKeyPrefix) && !strings.Contains(key, "..")
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a new object key and a PUT URL for it.
func (s *MediaService) PresignUpload(ctx context.Context) (string, string, error) {
	if !s.Enabled() {
		return "", "", common.ErrNotFound
	}
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", common.ErrInternal.Wrap(err)
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return "", "", common.ErrInternal.Wrap(err)
	}

	return key, req.URL, nil
}

// PresignDownload returns a GET URL for key.
func (s *MediaService) PresignDownload(ctx context.Context, key string) (string, error) {
	if !s.Enabled() || !validMediaKey(key) {
		return "", common.ErrNotFound
	}
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", common.ErrInternal.Wrap(err)
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpires))
	if err != nil {
		return "", common.ErrInternal.Wrap(err)
	}

	return req.URL, nil
}
