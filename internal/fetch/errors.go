package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient 匹配重试耗尽后的临时失败（超时、5xx、429、连接错误）。
	ErrTransient = errors.New("transient upstream failure")
	// ErrUnavailable 匹配永久失败（404、其他 4xx、无法解析的响应）。
	ErrUnavailable = errors.New("resource unavailable")
)

// Kind 区分失败类别。
type Kind string

const (
	KindTransient   Kind = "transient"
	KindUnavailable Kind = "unavailable"
)

// Error 是抓取失败时返回的唯一错误类型，底层 net/http 错误只作为 Err 保留。
type Error struct {
	Kind     Kind
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is 让 errors.Is 按 Kind 匹配哨兵错误。
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	}
	return false
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable 构造永久失败，供解析上游响应的调用方使用。
func Unavailable(url string, err error) error {
	return &Error{Kind: KindUnavailable, URL: url, Attempts: 1, Err: err}
}
