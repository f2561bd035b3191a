package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// pageQuery reads page/limit query parameters. Defaults are applied by the
// service layer.
func pageQuery(c *fiber.Ctx) (page, limit int) {
	return parseInt(c.Query("page"), 0), parseInt(c.Query("limit"), 0)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := c.Query(key); val != "" {
		return &val
	}
	return nil
}

func dataResponse(c *fiber.Ctx, payload any) error {
	return c.JSON(fiber.Map{"data": payload})
}

func createdResponse(c *fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": payload})
}

func pageResponse(c *fiber.Ctx, items any, meta util.PageMeta) error {
	return c.JSON(fiber.Map{"data": items, "meta": meta})
}
