package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/policy"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

// Locals keys para los datos del actor en Fiber.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// AuthMiddleware valida el Bearer Token (access) y carga UserID, Email y Role en c.Locals.
func AuthMiddleware(accessSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fmt.Errorf("%w: Authorization header requerido", domain.ErrUnauthorized)
		}
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return fmt.Errorf("%w: formato: Bearer <token>", domain.ErrUnauthorized)
		}
		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			return fmt.Errorf("%w: token vacío", domain.ErrUnauthorized)
		}
		claims, err := jwt.Parse(accessSecret, tokenString, jwt.AccessToken)
		if err != nil {
			return fmt.Errorf("%w: token inválido o expirado", domain.ErrUnauthorized)
		}
		if !entity.Role(claims.Role).Valid() {
			return fmt.Errorf("%w: token sin rol", domain.ErrUnauthorized)
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// Authorize consulta la tabla de permisos antes del handler. Debe usarse DESPUÉS de AuthMiddleware.
func Authorize(res policy.Resource, action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.Allowed(entity.Role(GetRole(c)), res, action) {
			return domain.ErrForbidden
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalUserID).(int64)
	return id
}

// GetRole devuelve el rol del contexto.
func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return role
}

// GetActor arma el policy.Actor con los datos del token.
func GetActor(c *fiber.Ctx) policy.Actor {
	email, _ := c.Locals(LocalEmail).(string)
	return policy.Actor{ID: GetUserID(c), Email: email, Role: entity.Role(GetRole(c))}
}
