// Package s3 uploads paper trade history to S3-compatible object storage.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"spotarb/internal/application/port"
	"spotarb/internal/domain/model"
	"spotarb/internal/infrastructure/storage/jsonfile"
)

// Config 对象存储连接参数；Endpoint 为空时使用 AWS S3
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// PutObjectAPI is the subset of the S3 client the exporter needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Exporter struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// New 构建 S3 客户端。提供静态密钥时使用静态凭证，否则走默认凭证链
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		// S3 兼容存储（MinIO 等）需要 path-style
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client PutObjectAPI, bucket, prefix string) *Exporter {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "paper-trades"
	}
	return &Exporter{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Key 对象键：<prefix>/<UTC 时间戳>.json
func (e *Exporter) Key(at time.Time) string {
	return path.Join(e.prefix, at.UTC().Format("20060102T150405Z")+".json")
}

func (e *Exporter) Export(ctx context.Context, trades []model.PaperTrade) error {
	data, err := jsonfile.Encode(trades)
	if err != nil {
		return fmt.Errorf("encode paper trades: %w", err)
	}
	key := e.Key(e.now())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3: put object %s: %w", key, err)
	}
	return nil
}

var _ port.HistoryExporter = (*Exporter)(nil)
