package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// Store 负责管理磁盘缓存文件的读写。磁盘布局遵循：
//
//	<CacheDir>/<resource>/<readable>.<digest><ext>
//
// 条目仅由正文文件组成，ModTime/Size 由文件系统提供；同目录下的 .lock 文件用于跨进程互斥。
type Store interface {
	// Get 返回可流式读取的缓存条目。文件不存在或大小为 0 时返回 ErrNotFound。
	Get(ctx context.Context, key Key) (*ReadResult, error)

	// Put 写入缓存正文。实现需通过临时文件 + rename 保证原子性，失败时清理临时文件。
	Put(ctx context.Context, key Key, body io.Reader) (*Entry, error)

	// Remove 删除正文文件，不存在时视为成功。
	Remove(ctx context.Context, key Key) error

	// Clear 删除缓存根目录下的全部内容并重建根目录。
	Clear(ctx context.Context) error

	// List 列出全部有效条目（跳过锁文件与临时文件）。
	List(ctx context.Context) ([]Entry, error)

	// Path 返回 key 对应的绝对路径。
	Path(key Key) (string, error)
}

// Entry 描述一个缓存文件。Name 为相对缓存根目录的路径。
type Entry struct {
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在或无效（大小为 0）。
var ErrNotFound = errors.New("cache entry not found")
