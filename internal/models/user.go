package models

import (
	"time"

	"github.com/google/uuid"
)

// Role determines which profile record a user owns and which
// permission flags get set at creation time.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password        string     `gorm:"not null" json:"-"`
	FirstName       string     `gorm:"size:100" json:"first_name"`
	LastName        string     `gorm:"size:100" json:"last_name"`
	Role            Role       `gorm:"size:20;not null;index" json:"role"`
	Verified        bool       `gorm:"default:false" json:"verified"`
	PasswordChanged bool       `gorm:"default:false" json:"password_changed"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	IsStaff         bool       `gorm:"default:false" json:"-"`
	IsSuperuser     bool       `gorm:"default:false" json:"-"`
	ManagerID       *uuid.UUID `gorm:"type:uuid;index" json:"manager_id,omitempty"`
	Manager         *User      `gorm:"foreignKey:ManagerID" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
