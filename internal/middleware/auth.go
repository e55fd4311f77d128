package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/token"
)

// JWTProtected verifies the bearer token's signature and expiry. Type
// and jti claims are checked by UserID when a handler resolves the
// caller.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Envelope{
				Code:   apperr.ErrTokenInvalid.Code,
				Detail: "invalid or expired token",
			})
		},
	})
}

// UserID extracts the authenticated user id from the validated bearer
// token. Only access tokens are accepted here.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return uuid.Nil, apperr.ErrTokenInvalid
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperr.ErrTokenInvalid
	}

	tokenType, _ := claims["token_type"].(string)
	if tokenType == "" {
		return uuid.Nil, apperr.ErrTokenNoType
	}
	if tokenType != token.TypeAccess {
		return uuid.Nil, apperr.ErrTokenWrongType
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		return uuid.Nil, apperr.ErrTokenNoID
	}

	sub, _ := claims["user_id"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, apperr.ErrTokenInvalid
	}
	return id, nil
}
