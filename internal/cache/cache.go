package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/metrics"
	"github.com/casskit/casskit/internal/table"
)

// Status 描述一次 Fetch 的结果来源。
type Status string

const (
	StatusHit     Status = "hit"
	StatusFetched Status = "fetched"
	StatusMirror  Status = "mirror"
	StatusEmpty   Status = "empty"
)

// Producer 在缓存未命中时产出规范化后的表格。
type Producer func(ctx context.Context) (*table.Table, error)

// Result 为 Fetch 的返回值。StatusEmpty 时 Entry 为 nil 且未写盘。
type Result struct {
	Table  *table.Table
	Status Status
	Entry  *Entry
}

// Options 配置一个 Cache 实例。Dir 必填，其余字段均有默认值。
type Options struct {
	Dir         string
	Codec       Codec
	FileLock    bool
	LockTimeout time.Duration
	Mirror      Mirror
	Logger      *logrus.Logger
	Metrics     *metrics.LatencyTracker
}

// Cache 将 Producer 包装为幂等的磁盘缓存。
type Cache struct {
	dir     string
	store   Store
	codec   Codec
	locker  *keyLocker
	mirror  Mirror
	logger  *logrus.Logger
	metrics *metrics.LatencyTracker
}

// New 创建缓存根目录并返回 Cache。
func New(opts Options) (*Cache, error) {
	codec := opts.Codec
	if codec == nil {
		codec = GzipTSV{}
	}
	store, err := NewStore(opts.Dir, codec.Ext())
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Cache{
		dir:     dir,
		store:   store,
		codec:   codec,
		locker:  newKeyLocker(opts.FileLock, opts.LockTimeout),
		mirror:  opts.Mirror,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

type fetchOptions struct {
	force bool
}

// FetchOption 调整单次 Fetch 行为。
type FetchOption func(*fetchOptions)

// WithForceRefresh 跳过本地与镜像读取，重新调用 Producer 并覆盖已有条目。
func WithForceRefresh() FetchOption {
	return func(o *fetchOptions) { o.force = true }
}

// Fetch 命中时直接解码返回；未命中时在键锁内调用 produce 并原子写入。
// 空表不落盘，返回 StatusEmpty。
func (c *Cache) Fetch(ctx context.Context, key Key, produce Producer, opts ...FetchOption) (*Result, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.force {
		res, err := c.read(ctx, key)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return res, err
		}
	}

	artifact, err := c.store.Path(key)
	if err != nil {
		return nil, err
	}
	release, err := c.locker.lock(ctx, artifact)
	if err != nil {
		return nil, err
	}
	defer release()

	if !o.force {
		// 等锁期间其他持有者可能已写入
		res, err := c.read(ctx, key)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return res, err
		}
		if res, ok := c.fromMirror(ctx, key); ok {
			return res, nil
		}
	}

	t, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	if t.Empty() {
		c.logger.WithFields(logrus.Fields{
			"action":    "cache_fetch",
			"cache_key": key.String(),
		}).Warn("producer returned an empty table; nothing cached")
		if t == nil {
			t = &table.Table{}
		}
		return &Result{Table: t, Status: StatusEmpty}, nil
	}

	var buf bytes.Buffer
	if err := c.codec.Encode(&buf, t); err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	start := time.Now()
	entry, err := c.store.Put(ctx, key, bytes.NewReader(buf.Bytes()))
	c.metrics.Since(metrics.OpCacheWrite, start)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}

	if c.mirror != nil {
		if err := c.mirror.Upload(ctx, key.RelPath(c.codec.Ext()), buf.Bytes()); err != nil {
			c.logger.WithError(err).WithField("cache_key", key.String()).Warn("mirror upload failed")
		}
	}

	return &Result{Table: t, Status: StatusFetched, Entry: entry}, nil
}

// Read 只读缓存，不触发抓取。条目缺失时返回 ErrNotFound。
func (c *Cache) Read(ctx context.Context, key Key) (*table.Table, error) {
	res, err := c.read(ctx, key)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

func (c *Cache) read(ctx context.Context, key Key) (*Result, error) {
	start := time.Now()
	rr, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rr.Reader.Close()

	t, err := c.codec.Decode(rr.Reader)
	c.metrics.Since(metrics.OpCacheRead, start)
	if err != nil {
		return nil, &CorruptCacheError{Key: key.String(), Path: rr.Entry.FilePath, Err: err}
	}
	entry := rr.Entry
	return &Result{Table: t, Status: StatusHit, Entry: &entry}, nil
}

// fromMirror 从远端镜像回填本地条目；镜像内容无法解码时放弃并回落到 Producer。
func (c *Cache) fromMirror(ctx context.Context, key Key) (*Result, bool) {
	if c.mirror == nil {
		return nil, false
	}
	name := key.RelPath(c.codec.Ext())
	log := c.logger.WithFields(logrus.Fields{"cache_key": key.String(), "mirror_object": name})

	start := time.Now()
	body, err := c.mirror.Download(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("mirror download failed")
		}
		return nil, false
	}
	payload, err := io.ReadAll(body)
	body.Close()
	c.metrics.Since(metrics.OpMirror, start)
	if err != nil {
		log.WithError(err).Warn("mirror read failed")
		return nil, false
	}

	t, err := c.codec.Decode(bytes.NewReader(payload))
	if err != nil || t.Empty() {
		log.WithError(err).Warn("mirror object unusable")
		return nil, false
	}

	entry, err := c.store.Put(ctx, key, bytes.NewReader(payload))
	if err != nil {
		log.WithError(err).Warn("mirror backfill failed")
		return &Result{Table: t, Status: StatusMirror}, true
	}
	return &Result{Table: t, Status: StatusMirror, Entry: entry}, true
}

// Remove 删除单个条目，不存在时视为成功。
func (c *Cache) Remove(ctx context.Context, key Key) error {
	return c.store.Remove(ctx, key)
}

// Clear 清空整个缓存根目录。
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Size 返回全部条目的字节数之和。
func (c *Cache) Size(ctx context.Context) (int64, error) {
	entries, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}
	return total, nil
}

// Entries 列出全部条目。
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	return c.store.List(ctx)
}

// Path 返回 key 对应条目的绝对路径（不保证存在）。
func (c *Cache) Path(key Key) (string, error) {
	return c.store.Path(key)
}

// Dir 返回缓存根目录的绝对路径。
func (c *Cache) Dir() string { return c.dir }
