// Package rbridge 通过子进程执行 R 脚本，实现 resource.ScriptRunner。
package rbridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/table"
)

// stderrTail 限制错误信息中附带的 stderr 长度。
const stderrTail = 2048

// ErrInterpreterNotFound 表示找不到 Rscript 可执行文件。
var ErrInterpreterNotFound = errors.New("rbridge: interpreter not found")

// Runner 以 Command 执行脚本：Command script args...
type Runner struct {
	Command string
	Logger  *logrus.Logger
}

// New 返回使用给定解释器的 Runner，command 为空时使用 Rscript。
func New(command string, logger *logrus.Logger) *Runner {
	if strings.TrimSpace(command) == "" {
		command = "Rscript"
	}
	return &Runner{Command: command, Logger: logger}
}

// Run 执行脚本并返回标准输出。非零退出时错误信息带上 stderr 末尾。
func (r *Runner) Run(ctx context.Context, script string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(r.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInterpreterNotFound, r.Command)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{script}, args...)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err = cmd.Run()
	if r.Logger != nil {
		entry := r.Logger.WithFields(logrus.Fields{
			"action":      "rscript",
			"command":     r.Command,
			"script":      script,
			"elapsed_ms":  time.Since(started).Milliseconds(),
			"stdout_size": stdout.Len(),
		})
		if err != nil {
			entry.WithError(err).Warn("rscript_failed")
		} else {
			entry.Debug("rscript_done")
		}
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("rbridge: %s %s: %w: %s", r.Command, script, err, tail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// RunTable 把 input 写成 CSV 临时文件，以其路径作为脚本的第一个参数，
// 并把标准输出按 CSV 解析为表。用于对已有表做 R 端变换；目前没有注册资源需要输入表。
func (r *Runner) RunTable(ctx context.Context, script string, input *table.Table, args ...string) (*table.Table, error) {
	f, err := os.CreateTemp("", "casskit-r-*.csv")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())

	if err := table.Write(f, input, ','); err != nil {
		f.Close()
		return nil, fmt.Errorf("rbridge: write input: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	out, err := r.Run(ctx, script, append([]string{f.Name()}, args...)...)
	if err != nil {
		return nil, err
	}
	return table.Read(bytes.NewReader(out), table.ReadOptions{Separator: ','})
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}
	return "..." + s[len(s)-stderrTail:]
}
