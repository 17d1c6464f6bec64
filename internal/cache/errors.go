package cache

import (
	"errors"
	"fmt"
)

// ErrCorruptCache 匹配所有 CorruptCacheError。
var ErrCorruptCache = errors.New("corrupt cache artifact")

// CorruptCacheError 表示条目存在但无法解码。调用方应删除该条目或以 force refresh 重新抓取。
type CorruptCacheError struct {
	Key  string
	Path string
	Err  error
}

func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("cache artifact %s for %s is corrupt (%v); remove it or refetch with force refresh", e.Path, e.Key, e.Err)
}

func (e *CorruptCacheError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrCorruptCache) 成立。
func (e *CorruptCacheError) Is(target error) bool { return target == ErrCorruptCache }
