package resource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownResource 匹配所有 UnknownResourceError。
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidParam 表示参数缺失、未知或超出取值范围。
	ErrInvalidParam = errors.New("invalid resource parameter")
)

// UnknownResourceError 在任何网络访问之前返回，并列出全部合法名称。
type UnknownResourceError struct {
	Name  string
	Valid []string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnknownResourceError) Is(target error) bool { return target == ErrUnknownResource }

// ParamError 描述单个参数的校验失败。
type ParamError struct {
	Resource Name
	Param    string
	Reason   string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: parameter %s: %s", e.Resource, e.Param, e.Reason)
}

func (e *ParamError) Is(target error) bool { return target == ErrInvalidParam }
