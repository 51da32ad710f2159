package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the response header carrying the request's ray id.
const Header = "X-Ray-Id"

// New returns a middleware that assigns a ray id to every request.
// An id supplied by an upstream proxy is kept so traces stay connected.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
