package output

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// UploadTimeout bounds a single object upload
const UploadTimeout = 30 * time.Second

// S3Config holds the connection settings for an S3-compatible store
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Publisher uploads finished renders to a bucket
type S3Publisher struct {
	client *s3.S3
	bucket string
	logger core.Logger
}

// NewS3Publisher creates a publisher using static credentials and path-style addressing
func NewS3Publisher(cfg S3Config, logger core.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Publisher{client: s3.New(sess), bucket: cfg.Bucket, logger: logger}, nil
}

// Upload stores data under key
func (p *S3Publisher) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(len(data))
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if p.logger != nil {
		p.logger.Printf("Uploaded %s to s3://%s (%d bytes)\n", key, p.bucket, size)
	}
	return nil
}

// PublishImage encodes img in the format given by key's extension and uploads it
func (p *S3Publisher) PublishImage(ctx context.Context, key string, img image.Image) error {
	ext := path.Ext(key)

	var buf bytes.Buffer
	var err error
	if strings.EqualFold(ext, ".ppm") {
		err = WritePPM(&buf, img)
	} else {
		err = Encode(&buf, img, ext)
	}
	if err != nil {
		return err
	}

	return p.Upload(ctx, key, buf.Bytes(), ContentType(ext))
}
