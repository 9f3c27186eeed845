package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"cardapio/internal/util"
)

// Archive keeps a copy of every processed source document.
type Archive interface {
	Put(ctx context.Context, key string, blob []byte, contentType string) error
}

type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type S3Archive struct {
	client *s3.Client
	bucket string
}

func NewS3Archive(ctx context.Context, opts S3Options) (*S3Archive, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("archive bucket is empty")
	}
	region := util.FirstNonEmpty(opts.Region, "auto")

	loaders := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &S3Archive{client: client, bucket: opts.Bucket}, nil
}

func (a *S3Archive) Put(ctx context.Context, key string, blob []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           &key,
		Body:          bytes.NewReader(blob),
		ContentLength: aws.Int64(int64(len(blob))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// DocumentKey is menus/<trace-id>/<file>.
func DocumentKey(traceID, fileName string) string {
	return path.Join("menus", traceID, util.SafeFileName(fileName, 120))
}

func ContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".eml":
		return "message/rfc822"
	default:
		return "application/octet-stream"
	}
}
