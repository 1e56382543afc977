package middleware

import (
	"log"
	"strings"

	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts user identity and roles set by the Gateway.
// Dashboard routes sit behind it; the public form and live widget do not.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-User-Roles")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		if rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				r = strings.TrimSpace(r)
				if r != "" {
					roles = append(roles, r)
				}
			}
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// rolePrecedence orders roles from most to least privileged; ResolveRole
// picks the strongest one the gateway sent.
var rolePrecedence = []string{utils.RoleAdmin, utils.RoleModerator, utils.RoleEditor, utils.RoleViewer, utils.RoleUser}

// ResolveRole returns the effective role for the request, defaulting to
// viewer when nothing usable was attached.
func ResolveRole(c *fiber.Ctx) string {
	roles, _ := c.Locals("user_roles").([]string)
	for _, wanted := range rolePrecedence {
		for _, r := range roles {
			if strings.EqualFold(r, wanted) {
				if wanted == utils.RoleUser {
					return utils.RoleViewer
				}
				return wanted
			}
		}
	}
	return utils.RoleViewer
}

// RequireRole gates a route on a minimum role. Precedence is strict:
// admin > moderator > editor > viewer.
func RequireRole(minimum string) fiber.Handler {
	rank := map[string]int{}
	for i, r := range rolePrecedence {
		rank[r] = len(rolePrecedence) - i
	}
	return func(c *fiber.Ctx) error {
		role := ResolveRole(c)
		if rank[role] < rank[minimum] {
			log.Printf("🚫 [RBAC] role %q denied on %s (requires %s)", role, c.Path(), minimum)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role for this operation",
			})
		}
		return c.Next()
	}
}
