package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware authenticates the request and resolves the tenant. The
// org_id claim is the isolation boundary for every downstream call; a
// token without it is rejected outright.
func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
	}

	orgId, ok := claims["org_id"].(string)
	if !ok || orgId == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token has no organization"})
	}

	ctx.Locals("org_id", orgId)
	if userId, ok := claims["user_id"].(string); ok {
		ctx.Locals("user_id", userId)
	}
	return ctx.Next()
}
