package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter 限制对单个门户的请求速率，例如 Ensembl REST 要求不超过 15 req/s。
// 令牌按注入的 Clock 计算，测试可观察等待时长。
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter perSecond <= 0 时返回 nil（不限速）。
func NewRateLimiter(perSecond float64) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait 预留一个令牌并通过 clock 等待所需时长。nil RateLimiter 不等待。
func (r *RateLimiter) Wait(ctx context.Context, clock Clock) error {
	if r == nil {
		return nil
	}
	now := clock.Now()
	reservation := r.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return ctx.Err()
	}
	if err := clock.Sleep(ctx, reservation.DelayFrom(now)); err != nil {
		reservation.CancelAt(now)
		return err
	}
	return nil
}
