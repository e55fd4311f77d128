// Package token issues and validates the signed bearer credentials used
// by the API: short-lived access tokens, rotating refresh tokens, and
// single-purpose email-verification tokens. Refresh revocation is
// tracked by jti in the blacklisted_tokens table.
package token

import (
	"errors"
	"time"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeVerify  = "verify"
)

type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type Issuer struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewIssuer(db *gorm.DB, cfg *config.Config) *Issuer {
	return &Issuer{db: db, cfg: cfg}
}

// Issue mints an access/refresh pair for the user.
func (i *Issuer) Issue(user *models.User) (*Pair, error) {
	access, err := i.mint(user.ID, TypeAccess, i.cfg.JWTAccessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := i.mint(user.ID, TypeRefresh, i.cfg.JWTRefreshExpiry)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// IssueVerify mints an email-verification token for the user.
func (i *Issuer) IssueVerify(user *models.User) (string, error) {
	return i.mint(user.ID, TypeVerify, i.cfg.JWTVerifyExpiry)
}

func (i *Issuer) mint(userID uuid.UUID, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(i.cfg.JWTSecret))
}

// Validate parses and checks a raw token against the expected type
// claim. Refresh tokens are additionally checked against the
// blacklist.
func (i *Issuer) Validate(raw, expectedType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(i.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}

	if claims.TokenType == "" {
		return nil, apperr.ErrTokenNoType
	}
	if claims.TokenType != expectedType {
		return nil, apperr.ErrTokenWrongType
	}
	if claims.ID == "" {
		return nil, apperr.ErrTokenNoID
	}

	if expectedType == TypeRefresh {
		var count int64
		if err := i.db.Model(&models.BlacklistedToken{}).
			Where("jti = ?", claims.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, apperr.ErrTokenBlacklisted
		}
	}

	return claims, nil
}

// Revoke validates a refresh token and records its jti as blacklisted.
// Subsequent validation of any token bearing that jti fails.
func (i *Issuer) Revoke(refreshRaw string) error {
	claims, err := i.Validate(refreshRaw, TypeRefresh)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return apperr.ErrTokenInvalid
	}
	record := models.BlacklistedToken{
		ID:        uuid.New(),
		JTI:       claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return i.db.Create(&record).Error
}

// Rotate validates a refresh token and issues a fresh pair. The old
// refresh token is blacklisted when rotation is enabled.
func (i *Issuer) Rotate(refreshRaw string) (*Pair, *Claims, error) {
	claims, err := i.Validate(refreshRaw, TypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, apperr.ErrTokenInvalid
	}

	if i.cfg.RotateRefresh {
		record := models.BlacklistedToken{
			ID:        uuid.New(),
			JTI:       claims.ID,
			UserID:    userID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		if err := i.db.Create(&record).Error; err != nil {
			return nil, nil, err
		}
	}

	pair, err := i.Issue(&models.User{ID: userID})
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// PurgeExpired deletes blacklist rows whose tokens are past expiry.
// Called by the retention loop; a row for an expired token serves no
// purpose since validation fails on exp first.
func (i *Issuer) PurgeExpired() (int64, error) {
	result := i.db.Where("expires_at < ?", time.Now()).Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
