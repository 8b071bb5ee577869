package middleware

import (
	"examportal/config"
	"examportal/models"
	"examportal/utils"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// IdentityMiddleware decodes the caller's token once and stores the resulting
// Identity on the request, so handlers never touch the token themselves.
func IdentityMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := utils.ExtractIdentityFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func GetIdentity(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(identityKey).(models.Identity)
	return identity
}
