package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ParseUserID validates an HMAC-signed token and returns its user_id claim.
func ParseUserID(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}
	return userID, nil
}

// TokenFromRequest reads a bearer token from the Authorization header, or from
// the token query parameter for browser websocket handshakes.
func TokenFromRequest(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}

		userID, err := ParseUserID(tokenStr, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}

// UserID returns the authenticated user id set by the middleware.
func UserID(ctx *fiber.Ctx) (string, error) {
	userID, ok := ctx.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return userID, nil
}
