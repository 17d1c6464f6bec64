package routes

import (
	"sort"

	"github.com/gofiber/fiber/v3"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/metrics"
)

// RegisterCacheRoutes 暴露 /-/cache（条目与总大小）和 /-/metrics（各阶段耗时分位数）。
func RegisterCacheRoutes(app *fiber.App, c *cache.Cache, tracker *metrics.LatencyTracker) {
	if app == nil || c == nil {
		return
	}

	app.Get("/-/cache", func(ctx fiber.Ctx) error {
		entries, err := c.Entries(ctx.Context())
		if err != nil {
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_list_failed", "detail": err.Error()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		var total int64
		for _, e := range entries {
			total += e.SizeBytes
		}
		return ctx.JSON(fiber.Map{
			"dir":        c.Dir(),
			"entries":    entries,
			"count":      len(entries),
			"size_bytes": total,
		})
	})

	app.Get("/-/metrics", func(ctx fiber.Ctx) error {
		stats := tracker.Snapshot()
		if stats == nil {
			stats = []metrics.Stats{}
		}
		return ctx.JSON(fiber.Map{"latency": stats})
	})
}
