package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/casskit/casskit/internal/resource"
)

// RegisterResourceRoutes 暴露 /-/resources 诊断接口，列出注册表中的资源与参数取值域。
func RegisterResourceRoutes(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/-/resources", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"resources": encodeResources(resource.List()),
		})
	})

	app.Get("/-/resources/:name", func(c fiber.Ctx) error {
		name := strings.ToLower(strings.TrimSpace(c.Params("name")))
		d, err := resource.Lookup(name)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "resource_unknown", "detail": err.Error()})
		}
		return c.JSON(encodeResource(d))
	})
}

type resourcePayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	BaseURL     string         `json:"base_url,omitempty"`
	Format      string         `json:"format"`
	Columns     []string       `json:"columns,omitempty"`
	Params      []paramPayload `json:"params,omitempty"`
	RateLimited bool           `json:"rate_limited"`
}

type paramPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values,omitempty"`
	Default     string   `json:"default,omitempty"`
}

func encodeResources(descs []*resource.Descriptor) []resourcePayload {
	if len(descs) == 0 {
		return nil
	}
	sort.Slice(descs, func(i, j int) bool {
		return descs[i].Name < descs[j].Name
	})
	result := make([]resourcePayload, 0, len(descs))
	for _, d := range descs {
		result = append(result, encodeResource(d))
	}
	return result
}

func encodeResource(d *resource.Descriptor) resourcePayload {
	params := make([]paramPayload, 0, len(d.Params))
	for _, p := range d.Params {
		params = append(params, paramPayload{
			Name:        p.Name,
			Description: p.Description,
			Values:      append([]string(nil), p.Values...),
			Default:     p.Default,
		})
	}
	return resourcePayload{
		Name:        string(d.Name),
		Description: d.Description,
		BaseURL:     d.BaseURL,
		Format:      d.Format.String(),
		Columns:     append([]string(nil), d.Columns...),
		Params:      params,
		RateLimited: d.Limiter != nil,
	}
}
