package utils

import (
	"time"

	"examportal/config"
	"examportal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func GenerateJWTToken(userID, role string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ExtractIdentityFromToken decodes the caller's identity (subject id + role)
// from the Authorization header.
func ExtractIdentityFromToken(c *fiber.Ctx, cfg *config.Config) (models.Identity, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return models.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return models.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	role, ok := claims["role"].(string)
	if !ok || (role != models.RoleTutor && role != models.RoleStudent) {
		return models.Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid role in token")
	}

	return models.Identity{ID: userID, Role: role}, nil
}
