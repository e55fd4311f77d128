package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPNumber is a short-lived numeric code proving email possession
// during a password reset. One live row per user (upserted on each
// request). Rows are deleted once the password change completes.
type OTPNumber struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Code       string    `gorm:"size:10;not null" json:"-"`
	Verified   bool      `gorm:"default:false" json:"verified"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Usable reports whether the code can still be checked.
func (o *OTPNumber) Usable(now time.Time) bool {
	return now.Before(o.ValidUntil)
}
