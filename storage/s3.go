package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gvsturm-ai/rental-hunter/models"
)

// ArchiveConfig holds settings for S3-compatible page archival.
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// PageArchive stores raw fetched pages in S3-compatible storage. The
// sites change markup without notice; an archived copy of the page a
// scan actually saw is what makes parser regressions debuggable.
type PageArchive struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewPageArchive(ctx context.Context, cfg ArchiveConfig) (*PageArchive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "pages"
	}

	return &PageArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// Save uploads one fetched page body and returns its object key.
func (a *PageArchive) Save(ctx context.Context, source models.Source, body []byte, contentType string) (string, error) {
	ext := ".html"
	if strings.Contains(contentType, "json") {
		ext = ".json"
	}
	key := fmt.Sprintf("%s/%s/%s%s",
		a.prefix, source, time.Now().UTC().Format("20060102T150405.000"), ext)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}
