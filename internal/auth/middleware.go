package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	actorKey = "auth_actor"
	// ActorPSNKey exposes the caller PSN to request logging.
	ActorPSNKey = "actor_psn"
)

// AuthMiddleware validates bearer tokens and loads actors.
type AuthMiddleware struct {
	tokens   *TokenManager
	resolver ActorResolver
	timeout  time.Duration
}

// NewAuthMiddleware constructs middleware. timeout bounds the directory
// lookup; zero means no extra deadline.
func NewAuthMiddleware(tokens *TokenManager, resolver ActorResolver, timeout time.Duration) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, resolver: resolver, timeout: timeout}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	actor, err := m.resolver.Resolve(ctx, claims.PSN(), claims.Kind)
	if err != nil {
		return err
	}

	c.Locals(actorKey, actor)
	c.Locals(ActorPSNKey, string(actor.PSN))
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}

// WithActor stores actor on the request. Used by tests and internal callers
// that authenticate by other means.
func WithActor(c *fiber.Ctx, actor domain.Actor) {
	c.Locals(actorKey, actor)
	c.Locals(ActorPSNKey, string(actor.PSN))
}
