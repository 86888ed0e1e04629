package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/utils/auth"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"gorm.io/gorm"
)

// AuthMiddleware handles JWT authentication for the back office
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

// Required is middleware that requires a valid JWT access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.TokenType != "access" {
			return response.Unauthorized(c, "Invalid token type")
		}

		// Load the admin and verify the token version
		var admin model.AdminUser
		if err := m.db.First(&admin, claims.AdminID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Unauthorized(c, "Account not found")
			}
			return response.InternalServerError(c, "Failed to load account")
		}

		if admin.TokenVersion != claims.TokenVersion {
			return response.Unauthorized(c, "Token has been invalidated")
		}

		c.Locals("admin_id", claims.AdminID)
		c.Locals("admin_email", claims.Email)
		c.Locals("admin_role", claims.Role)
		c.Locals("claims", claims)
		c.Locals("admin", &admin)

		return c.Next()
	}
}

// GetAdmin returns the authenticated admin from the request context
func GetAdmin(c *fiber.Ctx) (*model.AdminUser, bool) {
	admin, ok := c.Locals("admin").(*model.AdminUser)
	return admin, ok
}
