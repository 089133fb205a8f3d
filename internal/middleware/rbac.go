package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/vincula-api/internal/utils"
)

// RequireRole guards a whole route group. Roles are the AuthRole* constants;
// AuthRoleProfile admits both profile-owning roles.
func RequireRole(roles ...string) fiber.Handler {
	required := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
			required = append(required, role)
		}
	}

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		current := callerRole(c)
		for _, role := range required {
			if roleAllowed(role, current) {
				return c.Next()
			}
		}
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
	}
}

func roleAllowed(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleProfile:
		return current == AuthRoleInternal || current == AuthRoleExternal
	default:
		return current != "" && current == required
	}
}

// callerRole reads the role claim bound by JWTProtected, lower-cased.
func callerRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return strings.ToLower(strings.TrimSpace(role))
}
