package logx

import "github.com/gofiber/fiber/v2"

// FiberRequestFields stores the request id and route on the request's user
// context so WithContext picks them up in handlers and services.
// It must run after the requestid middleware.
func FiberRequestFields() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(ContextWithFields(c.UserContext(), Fields{
			"request_id": c.Get(fiber.HeaderXRequestID),
			"method":     c.Method(),
			"path":       c.Path(),
		}))
		return c.Next()
	}
}
