package media

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/minwoo-kang/localstar-service/internal/config"
)

// Client issues presigned upload URLs for registration images stored in
// an S3-compatible bucket.
type Client struct {
	region    string
	endpoint  string
	bucket    string
	accessKey string
	secretKey string
}

// NewClient initializes a new media storage client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		region:    cfg.S3Region,
		endpoint:  cfg.S3Endpoint,
		bucket:    cfg.S3Bucket,
		accessKey: cfg.S3AccessKey,
		secretKey: cfg.S3SecretKey,
	}
}

func (c *Client) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.accessKey,
			c.secretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
		}
	})

	return s3.NewPresignClient(client), nil
}

// NewImageKey returns a fresh object key for a registration image
func (c *Client) NewImageKey() string {
	d := time.Now()
	return fmt.Sprintf("registrations/%d/%02d/%v.jpg", d.Year(), d.Month(), uuid.New())
}

// PresignUpload returns a presigned PUT URL for the given object key,
// valid for 15 minutes.
func (c *Client) PresignUpload(ctx context.Context, key string) (string, error) {
	presignClient, err := c.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return req.URL, nil
}

// ObjectURL returns the public URL for a stored object
func (c *Client) ObjectURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
