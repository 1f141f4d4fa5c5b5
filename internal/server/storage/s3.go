package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Seams for testing the AWS SDK calls.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(cl *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return cl.PutObject(ctx, in)
	}
)

// S3Config holds connection settings for an S3-compatible backend (AWS S3,
// MinIO, etc.).
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Client implements Client against an S3-compatible provider.
type S3Client struct {
	cfg S3Config
}

func NewS3Client(cfg S3Config) *S3Client {
	return &S3Client{cfg: cfg}
}

// randomStorageKey spreads objects by date and keeps them unguessable.
func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("mirror/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (c *S3Client) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.cfg.RootUser,
			c.cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.cfg.BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload streams the local blob to the bucket under a fresh storage key and
// returns the key together with a public link built from the base endpoint.
func (c *S3Client) Upload(ctx context.Context, localPath, fileName, mimeType string) (models.ExternalRef, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("%w: open %s: %w", common.ErrRemoteUpload, localPath, err)
	}
	defer f.Close()

	client, err := c.getClient(ctx)
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("%w: %w", common.ErrRemoteUpload, err)
	}

	key := randomStorageKey()
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(mimeType),
		Metadata:    map[string]string{"original-name": fileName},
	})
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("%w: %w", common.ErrRemoteUpload, err)
	}

	link, err := url.JoinPath(c.cfg.BaseEndpoint, c.cfg.Bucket, key)
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("%w: %w", common.ErrRemoteUpload, err)
	}

	return models.ExternalRef{ID: key, Link: link}, nil
}
