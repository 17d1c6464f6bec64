package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedLogFormats = map[string]struct{}{
	"json": {},
	"text": {},
	"auto": {},
}

// Validate 针对语义级别做进一步校验，防止非法配置进入抓取流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", "无法识别的日志级别")
	}
	if _, ok := supportedLogFormats[strings.ToLower(g.LogFormat)]; !ok {
		return newFieldError("Global.LogFormat", "仅支持 json|text|auto")
	}
	if strings.TrimSpace(g.CacheDir) == "" {
		return newFieldError("Global.CacheDir", "不能为空")
	}
	if g.MaxRetries < 0 {
		return newFieldError("Global.MaxRetries", "不能为负数")
	}
	if g.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("Global.InitialBackoff", "必须大于 0")
	}
	if g.MaxBackoff.DurationValue() < g.InitialBackoff.DurationValue() {
		return newFieldError("Global.MaxBackoff", "不能小于 InitialBackoff")
	}
	if g.MaxRetryAfter.DurationValue() < 0 {
		return newFieldError("Global.MaxRetryAfter", "不能为负数")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.LockTimeout.DurationValue() < 0 {
		return newFieldError("Global.LockTimeout", "不能为负数")
	}
	if g.Workers < 1 {
		return newFieldError("Global.Workers", "至少为 1")
	}
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}

	if c.Mirror.Enabled() && strings.TrimSpace(c.Mirror.Region) == "" && c.Mirror.Endpoint == "" {
		return newFieldError("Mirror.Region", "配置 Bucket 时需要 Region 或 Endpoint")
	}
	if c.Mirror.Endpoint != "" {
		if err := validateURL(c.Mirror.Endpoint); err != nil {
			return fmt.Errorf("Mirror.Endpoint: %w", err)
		}
	}
	if (c.Cosmic.Email == "") != (c.Cosmic.Password == "") {
		return newFieldError("Cosmic", "Email 与 Password 需同时提供")
	}

	seen := map[string]struct{}{}
	for i := range c.Sources {
		src := &c.Sources[i]
		name := strings.ToLower(strings.TrimSpace(src.Name))
		if name == "" {
			return newFieldError("Source[].Name", "不能为空")
		}
		if _, exists := seen[name]; exists {
			return newFieldError(sourceField(name, "Name"), "重复")
		}
		seen[name] = struct{}{}
		src.Name = name

		if err := validateURL(src.URL); err != nil {
			return fmt.Errorf("%s: %w", sourceField(name, "URL"), err)
		}
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("无法解析 URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host")
	}
	return nil
}
