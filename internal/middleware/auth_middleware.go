package middleware

import (
	"strings"

	"github.com/aliyusifov99/inventory-management/internal/service"
	"github.com/aliyusifov99/inventory-management/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	LocalOperatorID   = "operator_id"
	LocalOperatorName = "operator_name"
	LocalClaims       = "operator_claims"
)

var systemClaims = &jwt.Claims{
	Privileges:       jwt.AllPrivileges,
	RegisteredClaims: jwtlib.RegisteredClaims{Subject: service.SystemActor},
}

// RequireAuth validates the bearer token and puts the operator into the
// request context. A nil signer disables authentication: every request runs
// as the system actor with every privilege.
func RequireAuth(signer *jwt.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if signer == nil {
			c.Locals(LocalOperatorID, service.SystemActor)
			c.Locals(LocalClaims, systemClaims)
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := signer.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(LocalOperatorID, claims.Subject)
		c.Locals(LocalOperatorName, claims.Name)
		c.Locals(LocalClaims, claims)
		c.SetUserContext(service.WithActor(c.UserContext(), claims.Subject))

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated operator has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(LocalClaims).(*jwt.Claims)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No privileges found"})
		}
		if claims.HasPrivilege(requiredPrivilege) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}
