package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay 为争用文件锁时的轮询间隔。
const lockRetryDelay = 100 * time.Millisecond

// ErrLockTimeout 表示在 LockTimeout 内未能获得某个键的跨进程锁。
var ErrLockTimeout = errors.New("timed out waiting for cache lock")

// keyLocker 对同一缓存键串行化“检查 → 抓取 → 写入”。进程内使用互斥锁，
// 开启 fileLock 时额外在 <artifact>.lock 上加 flock，覆盖多进程场景。
type keyLocker struct {
	fileLock bool
	timeout  time.Duration

	mu    sync.Mutex
	locks map[string]*entryLock
}

func newKeyLocker(fileLock bool, timeout time.Duration) *keyLocker {
	return &keyLocker{
		fileLock: fileLock,
		timeout:  timeout,
		locks:    make(map[string]*entryLock),
	}
}

// lock 返回释放函数。artifactPath 为条目的绝对路径。
func (l *keyLocker) lock(ctx context.Context, artifactPath string) (func(), error) {
	release, err := l.lockMem(ctx, artifactPath)
	if err != nil {
		return nil, err
	}
	if !l.fileLock {
		return release, nil
	}

	if err := os.MkdirAll(filepath.Dir(artifactPath), 0o755); err != nil {
		release()
		return nil, err
	}

	lockCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	fl := flock.New(artifactPath + lockSuffix)
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, artifactPath)
		}
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}

	return func() {
		_ = fl.Unlock()
		release()
	}, nil
}

// lockMem 获取进程内锁；等待期间可被 ctx 取消。
func (l *keyLocker) lockMem(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	lock := l.locks[name]
	if lock == nil {
		lock = &entryLock{}
		l.locks[name] = lock
	}
	lock.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(acquired)
	}()

	unref := func() {
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}

	select {
	case <-acquired:
		return func() {
			lock.mu.Unlock()
			unref()
		}, nil
	case <-ctx.Done():
		// 等待中的 goroutine 拿到锁后立即归还
		go func() {
			<-acquired
			lock.mu.Unlock()
			unref()
		}()
		return nil, ctx.Err()
	}
}
