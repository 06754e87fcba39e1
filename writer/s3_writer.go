package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "quotedump/config"
	"quotedump/logger"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores exported Parquet files in a bucket.
type S3Uploader struct {
	client      objectPutter
	bucket      string
	prefix      string
	version     string
	compression string
	log         *logger.Log
}

// NewS3Uploader configures the AWS SDK from cfg. Static credentials are used
// when both keys are set; otherwise the default chain applies.
func NewS3Uploader(ctx context.Context, cfg *appconfig.Config) (*S3Uploader, error) {
	log := logger.GetLogger()
	s3cfg := cfg.Storage.S3

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_writer").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		}
		o.UsePathStyle = s3cfg.PathStyle
	})

	log.WithComponent("s3_writer").WithFields(logger.Fields{
		"bucket":     s3cfg.Bucket,
		"region":     s3cfg.Region,
		"endpoint":   s3cfg.Endpoint,
		"path_style": s3cfg.PathStyle,
	}).Debug("s3 uploader initialized")

	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg *appconfig.Config) *S3Uploader {
	return &S3Uploader{
		client:      client,
		bucket:      cfg.Storage.S3.Bucket,
		prefix:      cfg.Storage.S3.Prefix,
		version:     cfg.QuoteDump.Version,
		compression: cfg.Output.Parquet.Compression,
		log:         logger.GetLogger(),
	}
}

// Key returns the object key for a run, partitioned by the UTC capture day.
func (u *S3Uploader) Key(runID string, day time.Time) string {
	day = day.UTC()
	return path.Join(
		u.prefix,
		fmt.Sprintf("year=%04d", day.Year()),
		fmt.Sprintf("month=%02d", int(day.Month())),
		fmt.Sprintf("day=%02d", day.Day()),
		fmt.Sprintf("quotes_%s.parquet", runID),
	)
}

// Upload puts data under key.
func (u *S3Uploader) Upload(ctx context.Context, key string, data []byte) error {
	log := u.log.WithComponent("s3_writer").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"s3_key":    key,
		"data_size": len(data),
	})

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":      "parquet",
			"compression":       u.compression,
			"quotedump-version": u.version,
		},
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		log.WithError(err).WithEnv("S3_BUCKET").Error("failed to upload to S3")
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", u.bucket, err)
	}

	log.Info("uploaded to S3")
	return nil
}
