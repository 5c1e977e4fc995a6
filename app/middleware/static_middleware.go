package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PlugStatic guards the static file tree mounted at staticPrefix: hidden
// files are never served, and browser probes of /.well-known/ get a short
// JSON answer instead of an error page.
func PlugStatic(staticPrefix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if strings.HasPrefix(path, "/.well-known/") {
			return c.JSON(fiber.Map{
				"status": "ignored dynamic-static",
			})
		}

		if strings.HasPrefix(path, staticPrefix) {
			for _, segment := range strings.Split(strings.TrimPrefix(path, staticPrefix), "/") {
				if strings.HasPrefix(segment, ".") {
					return fiber.ErrNotFound
				}
			}
			c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		}

		return c.Next()
	}
}
