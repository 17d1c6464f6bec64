package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/resource"
)

// TableHandler 负责把一次已解析的资源请求写回响应，测试中可替换为假实现。
type TableHandler interface {
	Handle(fiber.Ctx, *resource.Resolved) error
}

// TableHandlerFunc adapts a function to the TableHandler interface.
type TableHandlerFunc func(fiber.Ctx, *resource.Resolved) error

// Handle makes TableHandlerFunc satisfy TableHandler.
func (f TableHandlerFunc) Handle(c fiber.Ctx, req *resource.Resolved) error {
	return f(c, req)
}

// Resolver 将资源名与查询参数解析为具体请求，不触发网络访问。
type Resolver interface {
	Resolve(name string, params resource.Params) (*resource.Resolved, error)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Resolver   Resolver
	Tables     TableHandler
	ListenPort int
}

const (
	contextKeyResolved  = "_casskit_resolved"
	contextKeyRequestID = "_casskit_request_id"
)

// NewApp builds a Fiber application with request-ID middleware and the
// /tables/:name endpoint. Diagnostics are attached by routes.Register*.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Tables == nil {
		return nil, errors.New("table handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	// fiber v3.0.0-beta.3 runs the trailing middleware arguments before the
	// handler argument, so resolveMiddleware is passed last to run first.
	app.Get("/tables/:name", func(c fiber.Ctx) error {
		req, ok := getResolved(c)
		if !ok {
			return renderError(c, opts.Logger, fiber.StatusInternalServerError, "unresolved", nil)
		}
		return opts.Tables.Handle(c, req)
	}, resolveMiddleware(opts))

	return app, nil
}

func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// resolveMiddleware 在进入处理器前完成资源查找与参数校验，失败时直接返回 4xx。
func resolveMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		params := resource.Params{}
		for k, v := range c.Queries() {
			if k == "force" {
				continue
			}
			params[k] = v
		}

		req, err := opts.Resolver.Resolve(name, params)
		switch {
		case errors.Is(err, resource.ErrUnknownResource):
			return renderError(c, opts.Logger, fiber.StatusNotFound, "resource_unknown", err)
		case errors.Is(err, resource.ErrInvalidParam):
			return renderError(c, opts.Logger, fiber.StatusBadRequest, "invalid_param", err)
		case err != nil:
			return renderError(c, opts.Logger, fiber.StatusInternalServerError, "resolve_failed", err)
		}

		c.Locals(contextKeyResolved, req)
		return c.Next()
	}
}

func renderError(c fiber.Ctx, logger *logrus.Logger, status int, code string, err error) error {
	fields := logrus.Fields{
		"action":     "table_request",
		"path":       string(c.Request().URI().Path()),
		"status":     status,
		"request_id": RequestID(c),
	}
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(code)

	payload := fiber.Map{"error": code}
	if err != nil {
		payload["detail"] = err.Error()
	}
	return c.Status(status).JSON(payload)
}

func getResolved(c fiber.Ctx) (*resource.Resolved, bool) {
	if value := c.Locals(contextKeyResolved); value != nil {
		if req, ok := value.(*resource.Resolved); ok {
			return req, true
		}
	}
	return nil, false
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
