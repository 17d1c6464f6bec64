package fetch

import (
	"context"
	"time"
)

// Clock 抽象时间源，测试中可替换以观察退避等待而无需真实 sleep。
type Clock interface {
	Now() time.Time
	// Sleep 阻塞 d，ctx 取消时提前返回 ctx.Err()。
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock 使用真实时间。
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
