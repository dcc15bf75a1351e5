package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, isMap := token.Claims.(jwt.MapClaims)
	if !isMap {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	return claims, nil
}

// parseBearer returns the claims of a valid bearer token. ok is false when
// no bearer header is present.
func parseBearer(ctx *fiber.Ctx) (claims jwt.MapClaims, ok bool, err error) {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, false, nil
	}
	claims, err = ParseToken(authHeader[7:])
	return claims, true, err
}

func storeClaims(ctx *fiber.Ctx, claims jwt.MapClaims) {
	if userId, ok := claims["user_id"].(string); ok {
		ctx.Locals(LocalUserID, userId)
	}
	if role, ok := claims["role"].(string); ok {
		ctx.Locals(LocalRole, role)
	}
}

func JwtMiddleware(ctx *fiber.Ctx) error {
	claims, present, err := parseBearer(ctx)
	if !present {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
	}
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, err.Error()))
	}
	if _, ok := claims["user_id"].(string); !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
	}
	storeClaims(ctx, claims)
	return ctx.Next()
}

// OptionalJwtMiddleware lets guests through without locals. A token that is
// present but invalid is still rejected.
func OptionalJwtMiddleware(ctx *fiber.Ctx) error {
	claims, present, err := parseBearer(ctx)
	if !present {
		return ctx.Next()
	}
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, err.Error()))
	}
	storeClaims(ctx, claims)
	return ctx.Next()
}

// AdminMiddleware must run after JwtMiddleware.
func AdminMiddleware(ctx *fiber.Ctx) error {
	if RoleFrom(ctx) != "admin" {
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(403, "Access denied: Admins only"))
	}
	return ctx.Next()
}

// UserIDFrom returns the authenticated user id, or "" for guests.
func UserIDFrom(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalUserID).(string)
	return id
}

// RoleFrom returns the role claim, or "" for guests.
func RoleFrom(ctx *fiber.Ctx) string {
	role, _ := ctx.Locals(LocalRole).(string)
	return role
}
