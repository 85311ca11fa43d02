package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/rs/zerolog/log"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// Handler accepts only "Authorization: Bearer <token>" and exposes the
// caller as Locals "user_id" (int64) and "email".
func (m *AuthMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		scheme, token, found := strings.Cut(authz, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return apperror.ErrUnauthorized.WithMessage("Missing bearer token")
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("token validation failed")
			return apperror.ErrUnauthorized.WithMessage("Invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("email", claims.Email)
		return c.Next()
	}
}
