// Package mirror 将本地缓存条目同步到 S3 兼容的对象存储，
// 使多台机器可以共享已经下载并规范化的表格。
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/config"
)

// S3 实现 cache.Mirror。
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ cache.Mirror = (*S3)(nil)

// NewS3 按配置构建客户端；凭证走 AWS 默认链（环境变量、共享配置、实例角色）。
// Endpoint 非空时使用 path-style 访问，兼容 MinIO 等实现。
func NewS3(ctx context.Context, cfg config.MirrorConfig) (*S3, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mirror bucket not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Download 读取对象；对象不存在时返回 cache.ErrNotFound。
func (m *S3) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(name)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", m.bucket, m.objectKey(name), err)
	}
	return out.Body, nil
}

// Upload 覆盖写入对象。
func (m *S3) Upload(ctx context.Context, name string, body []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(m.objectKey(name)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, m.objectKey(name), err)
	}
	return nil
}

func (m *S3) objectKey(name string) string {
	name = strings.TrimPrefix(name, "/")
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}
