package models

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistedToken records a revoked refresh token by its jti claim.
// Rows past ExpiresAt are dead weight (the token would fail on expiry
// anyway) and get purged by the retention loop.
type BlacklistedToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JTI       string    `gorm:"column:jti;size:36;not null;uniqueIndex" json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
