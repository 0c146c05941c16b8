package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vision-inspector/internal/domain/port"
)

const defaultRegion = "us-east-1"

// S3Config параметры подключения к S3-совместимому хранилищу (AWS S3, MinIO).
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // необязательный, для MinIO и локальных стендов
	PathStyle       bool
	PublicBaseURL   string // база публичных ссылок; по умолчанию адрес бакета
	AccessKeyID     string // если пусто, берётся стандартная цепочка учётных данных AWS
	SecretAccessKey string
}

// S3Store кладёт эталонные снимки в один бакет
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store создаёт хранилище снимков поверх S3
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg, region),
	}, nil
}

// Put загружает снимок и возвращает его публичный URL
func (s *S3Store) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := objectKey(filename)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func publicBaseURL(cfg S3Config, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

var _ port.ImageStore = (*S3Store)(nil)
