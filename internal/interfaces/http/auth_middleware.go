package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shelf-inventory/internal/application/dto"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/pkg/jwt"
)

// Locals de Fiber que carga AuthMiddleware.
const (
	LocalAdminID  = "admin_id"
	LocalUsername = "username"
)

// AuthMiddleware valida el token bearer y guarda la identidad del admin en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "authorization header is required")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "expected: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthorized(c, "empty token")
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}
		c.Locals(LocalAdminID, claims.AdminID)
		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

// optionalAuth devuelve AuthMiddleware si se exige, si no un paso directo.
func optionalAuth(required bool, jwtSecret string) fiber.Handler {
	if required {
		return AuthMiddleware(jwtSecret)
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

// GetAdminID devuelve el id de admin cargado por AuthMiddleware, o "".
func GetAdminID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalAdminID).(string)
	return s
}

// GetUsername devuelve el username cargado por AuthMiddleware, o "".
func GetUsername(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUsername).(string)
	return s
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: string(domain.KindUnauthorized), Message: message})
}
