package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
	"github.com/Storbiic/ETL-Dashboard/internal/storage"
)

// ObjectPutter is the part of *s3.Client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads every artifact to Bucket under Prefix/<run id>/.
type S3 struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

// NewS3 builds a path-style client so MinIO and other S3-compatible stores
// work. Region defaults to us-east-1.
func NewS3(ctx context.Context, cfg config.S3) (*S3, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func (p *S3) Name() string { return "s3" }

// Key returns the object key of an artifact.
func (p *S3) Key(runID string, a storage.Artifact) string {
	return path.Join(p.Prefix, runID, a.Name)
}

// Publish stops at the first artifact that fails to upload.
func (p *S3) Publish(ctx context.Context, run Run) error {
	for _, a := range run.Artifacts {
		if err := p.put(ctx, run.ID, a); err != nil {
			return fmt.Errorf("s3: %s: %w", a.Name, err)
		}
	}
	return nil
}

func (p *S3) put(ctx context.Context, runID string, a storage.Artifact) error {
	f, err := os.Open(a.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = p.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.Bucket),
		Key:           aws.String(p.Key(runID, a)),
		Body:          f,
		ContentLength: aws.Int64(a.SizeBytes),
		ContentType:   aws.String(contentType(a.Format)),
	})
	return err
}

func contentType(format string) string {
	switch format {
	case storage.FormatCSV:
		return "text/csv"
	case storage.FormatMarkdown:
		return "text/markdown"
	case storage.FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}
