// Package sosbucket fetches the SoS prior reference file from an
// S3-compatible bucket ahead of a run. The bucket name "local" (or an empty
// name) means the file is already on disk and no fetch happens.
package sosbucket

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocalBucket is the bucket name that disables remote fetching.
const LocalBucket = "local"

// Client wraps an S3 client bound to one bucket.
type Client struct {
	client *s3.Client
	bucket string
}

// Config holds explicit construction parameters, mostly for tests against
// MinIO-style endpoints. Production relies on the default credential chain.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional custom endpoint
	PathStyle bool
}

// New creates a bucket client from Config.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("sos bucket name required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{client: client, bucket: cfg.Bucket}, nil
}

// Download fetches key from the bucket into dest, creating parent
// directories as needed.
func (c *Client) Download(ctx context.Context, key, dest string) error {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("fetching s3://%s/%s: %w", c.bucket, key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// ShouldFetch reports whether the bucket flag names a remote bucket.
func ShouldFetch(bucket string) bool {
	return bucket != "" && bucket != LocalBucket
}
