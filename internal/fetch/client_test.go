package fetch

import (
	"testing"
	"time"

	"github.com/casskit/casskit/internal/config"
)

func TestNewHTTPClientUsesConfigTimeout(t *testing.T) {
	cfg := &config.Config{
		Global: config.GlobalConfig{
			UpstreamTimeout: config.Duration(45 * time.Second),
		},
	}

	client := NewHTTPClient(cfg)
	if client.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", client.Timeout)
	}
}

func TestNewHTTPClientDefaultTimeout(t *testing.T) {
	if got := NewHTTPClient(nil).Timeout; got != 5*time.Minute {
		t.Fatalf("expected default timeout 5m, got %s", got)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	client := New(nil, Options{MaxRetries: -2, InitialBackoff: 2 * time.Second, MaxBackoff: time.Second})
	if client.opts.UserAgent != config.DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", client.opts.UserAgent)
	}
	if client.opts.MaxRetries != 0 {
		t.Fatalf("negative retries should clamp to 0, got %d", client.opts.MaxRetries)
	}
	if client.opts.MaxBackoff != 2*time.Second {
		t.Fatalf("max backoff should not be below initial, got %s", client.opts.MaxBackoff)
	}
}
