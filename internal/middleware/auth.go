package middleware

import (
	"strings"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/service"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
)

const claimsLocalKey = "claims"

// Authenticated extracts and verifies the bearer token: no header is 401,
// a token that fails verification (expired, tampered, wrong alg) is 403.
func Authenticated(jwtService *service.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return utils.UnauthorizedResponse(c, "Authorization header is required")
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			return utils.UnauthorizedResponse(c, "Bearer token is required")
		}

		claims, err := jwtService.VerifyToken(tokenString)
		if err != nil {
			return utils.ForbiddenResponse(c, "Invalid or expired token")
		}

		c.Locals(claimsLocalKey, claims)
		return c.Next()
	}
}

// AdminOnly rejects any verified identity whose role is not admin.
func AdminOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			return utils.ForbiddenResponse(c, "Admin role required")
		}
		return c.Next()
	}
}

func ClaimsFromContext(c fiber.Ctx) *models.Claims {
	claims, _ := c.Locals(claimsLocalKey).(*models.Claims)
	return claims
}
