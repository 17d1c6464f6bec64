// Package fetch 负责向数据门户发起 GET 请求：固定请求头、有界重试、
// 对 429 遵循 Retry-After、对 5xx/超时做指数退避，并把失败归类为
// ErrTransient 或 ErrUnavailable。
package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/config"
	"github.com/casskit/casskit/internal/logging"
	"github.com/casskit/casskit/internal/metrics"
)

// RequestIDHeader 随每个请求发送，便于与门户侧日志对齐。
const RequestIDHeader = "X-Request-Id"

// DefaultMaxRetryAfter 是未配置 MaxRetryAfter 时的等待上限。
const DefaultMaxRetryAfter = 5 * time.Minute

// Downloader 是资源层依赖的最小抓取接口。
type Downloader interface {
	Get(ctx context.Context, req Request) (*Response, error)
}

// Request 描述一次 GET。
type Request struct {
	URL    string
	Header http.Header

	// Username/Password 非空时附加 Basic 认证头。
	Username string
	Password string

	// Limiter 非 nil 时每次尝试前先取令牌。
	Limiter *RateLimiter
}

// Response 是完整读取后的成功响应。
type Response struct {
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
	Attempts  int
}

// Options 控制重试策略与固定请求头。
type Options struct {
	UserAgent      string
	Accept         string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxRetryAfter 是服务端 Retry-After 的上限，超出部分按上限等待。
	MaxRetryAfter  time.Duration

	Clock   Clock
	Logger  *logrus.Logger
	Metrics *metrics.LatencyTracker
}

// OptionsFromConfig 从全局配置提取重试与请求头设置。
func OptionsFromConfig(cfg *config.Config) Options {
	g := cfg.Global
	return Options{
		UserAgent:      g.UserAgent,
		Accept:         g.Accept,
		MaxRetries:     g.MaxRetries,
		InitialBackoff: g.InitialBackoff.DurationValue(),
		MaxBackoff:     g.MaxBackoff.DurationValue(),
		MaxRetryAfter:  g.MaxRetryAfter.DurationValue(),
	}
}

// Client 在 http.Client 之上实现重试状态机。
type Client struct {
	http *http.Client
	opts Options
}

// New 构造 Client，未设置的选项取默认值。
func New(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(nil)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.Accept == "" {
		opts.Accept = config.DefaultAccept
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if opts.MaxRetryAfter <= 0 {
		opts.MaxRetryAfter = DefaultMaxRetryAfter
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Client{http: httpClient, opts: opts}
}

// Get 执行请求直至成功、遇到永久失败或重试耗尽。总尝试次数不超过 MaxRetries+1。
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	backoff := c.opts.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := req.Limiter.Wait(ctx, c.opts.Clock); err != nil {
			return nil, err
		}

		started := time.Now()
		resp, status, header, err := c.attempt(ctx, req, requestID)
		c.opts.Metrics.Since(metrics.OpHTTP, started)

		var wait time.Duration
		switch {
		case err == nil:
			c.logResult(req.URL, requestID, attempt, status, started, nil)
			return &Response{
				URL:       req.URL,
				Status:    status,
				Header:    header,
				Body:      resp,
				RequestID: requestID,
				Attempts:  attempt,
			}, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case status == http.StatusTooManyRequests:
			wait = retryAfter(header, c.opts.Clock.Now())
			if wait < 0 {
				wait = c.opts.InitialBackoff
			}
			if wait > c.opts.MaxRetryAfter {
				wait = c.opts.MaxRetryAfter
			}
		case status == 0 || status >= 500:
			wait = backoff
			backoff *= 2
			if backoff > c.opts.MaxBackoff {
				backoff = c.opts.MaxBackoff
			}
		default:
			fetchErr := &Error{Kind: KindUnavailable, URL: req.URL, Status: status, Attempts: attempt, Err: err}
			c.logResult(req.URL, requestID, attempt, status, started, fetchErr)
			return nil, fetchErr
		}

		if attempt > c.opts.MaxRetries {
			fetchErr := &Error{Kind: KindTransient, URL: req.URL, Status: status, Attempts: attempt, Err: err}
			c.logResult(req.URL, requestID, attempt, status, started, fetchErr)
			return nil, fetchErr
		}

		c.logRetry(req.URL, requestID, attempt, status, wait, err)
		if err := c.opts.Clock.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// GetJSON 请求 JSON 并解码到 out；解码失败视为永久失败。
func (c *Client) GetJSON(ctx context.Context, req Request, out interface{}) error {
	return DecodeJSON(ctx, c, req, out)
}

// DecodeJSON 对任意 Downloader 执行 JSON 请求。
func DecodeJSON(ctx context.Context, d Downloader, req Request, out interface{}) error {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.Get(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return Unavailable(req.URL, fmt.Errorf("decode json: %w", err))
	}
	return nil
}

// attempt 发起一次请求。返回的 status 为 0 表示未拿到响应（连接错误、超时）。
func (c *Client) attempt(ctx context.Context, req Request, requestID string) ([]byte, int, http.Header, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		// URL 本身非法，重试无意义
		return nil, http.StatusBadRequest, nil, err
	}
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", c.opts.Accept)
	httpReq.Header.Set(RequestIDHeader, requestID)
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if auth := buildCredentialHeader(req.Username, req.Password); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// 响应体中途断开按临时失败处理
		return nil, 0, resp.Header, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// retryAfter 解析 delta-seconds（Ensembl 会给出小数秒）或 HTTP-date，
// 缺失、为负或无法解析时返回 -1。过大的值饱和为 maxDuration，由调用方截断。
func retryAfter(header http.Header, now time.Time) time.Duration {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return -1
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		if math.IsNaN(seconds) || seconds < 0 {
			return -1
		}
		if seconds >= maxDuration.Seconds() {
			return maxDuration
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return -1
}

const maxDuration = time.Duration(math.MaxInt64)

func buildCredentialHeader(username, password string) string {
	if username == "" || password == "" {
		return ""
	}
	token := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token))
}

func (c *Client) logRetry(url, requestID string, attempt, status int, wait time.Duration, err error) {
	fields := logging.RequestFields(requestID, url, attempt)
	fields["action"] = "fetch_retry"
	fields["upstream_status"] = status
	fields["wait_ms"] = wait.Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
	}
	c.opts.Logger.WithFields(fields).Warn("fetch_retry")
}

func (c *Client) logResult(url, requestID string, attempt, status int, started time.Time, err error) {
	fields := logging.RequestFields(requestID, url, attempt)
	fields["action"] = "fetch"
	fields["upstream_status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		if errors.Is(err, ErrUnavailable) {
			c.opts.Logger.WithFields(fields).Error("fetch_unavailable")
			return
		}
		c.opts.Logger.WithFields(fields).Error("fetch_failed")
		return
	}
	c.opts.Logger.WithFields(fields).Debug("fetch_complete")
}
