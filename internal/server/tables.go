package server

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/loader"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

// LoaderTables 通过 loader 读取表并以 TSV 返回。
// 响应头 X-Cache-Status 为 hit/fetched/mirror/empty。
type LoaderTables struct {
	Loader *loader.Loader
	Logger *logrus.Logger
}

// Handle implements TableHandler.
func (h *LoaderTables) Handle(c fiber.Ctx, req *resource.Resolved) error {
	var opts []loader.Option
	if force, _ := strconv.ParseBool(c.Query("force")); force {
		opts = append(opts, loader.WithForceRefresh())
	}

	res, err := h.Loader.LoadResolved(c.Context(), req, opts...)
	if err != nil {
		return renderError(c, h.Logger, statusFor(err), codeFor(err), err)
	}

	c.Set("X-Cache-Status", string(res.Status))
	c.Set("X-Cache-Key", req.Key.String())
	if res.Status == cache.StatusEmpty {
		return c.SendStatus(fiber.StatusNoContent)
	}

	var buf bytes.Buffer
	if err := table.Write(&buf, res.Table, '\t'); err != nil {
		return renderError(c, h.Logger, fiber.StatusInternalServerError, "encode_failed", err)
	}
	c.Set(fiber.HeaderContentType, "text/tab-separated-values; charset=utf-8")
	return c.Send(buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fetch.ErrTransient):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, fetch.ErrUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, cache.ErrCorruptCache):
		return fiber.StatusConflict
	case errors.Is(err, cache.ErrLockTimeout):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, fetch.ErrTransient):
		return "upstream_transient"
	case errors.Is(err, fetch.ErrUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, cache.ErrCorruptCache):
		return "cache_corrupt"
	case errors.Is(err, cache.ErrLockTimeout):
		return "cache_locked"
	}
	return "load_failed"
}
