package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequireEmployee ensures the caller is a ticket raising employee.
func RequireEmployee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Role != domain.RoleEmployee || actor.Employee == nil {
			return apperrors.NewForbidden("employee required")
		}
		return c.Next()
	}
}

// RequireStaff ensures the caller is HR or a supervisor. With roles given,
// the caller's role must also be one of them.
func RequireStaff(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actor.Role.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		if _, exists := allowed[actor.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller administers personnel records.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if actor.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
