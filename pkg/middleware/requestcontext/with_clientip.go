package requestcontext

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

// WithClientIP attaches the client IP to the request logger context.
// header overrides the source header (e.g. "CF-Connecting-IP"); when empty
// the remote address reported by fiber is used.
func WithClientIP(header string) Option {
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		ip := c.IP()
		if header != "" {
			if v := c.Get(header); v != "" {
				ip = v
			}
		}
		ctx = logger.WithContext(ctx, slogx.String("clientIp", ip))
		return ctx, nil
	}
}
