package cache

import (
	"context"
	"io"
)

// Mirror 是可选的远端副本（例如 S3 桶）。name 为条目相对路径。
// 条目不存在时 Download 必须返回 ErrNotFound。
type Mirror interface {
	Download(ctx context.Context, name string) (io.ReadCloser, error)
	Upload(ctx context.Context, name string, body []byte) error
}
