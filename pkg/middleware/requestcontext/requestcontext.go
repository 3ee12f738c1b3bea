package requestcontext

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

// New sets up the request-scoped context for downstream handlers.
func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		ctx := c.UserContext()
		for i, opt := range opts {
			ctx, err = opt(ctx, c)
			if err != nil {
				logger.ErrorContext(ctx, "failed to extract request context",
					slogx.Error(err),
					slogx.Int("optionIndex", i),
				)
				return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
