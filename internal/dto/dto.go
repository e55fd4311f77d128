// Package dto holds the request/response shapes of the REST API.
// Every response wraps its payload in the same envelope: successes as
// {code, detail, data}, errors as {code, detail}.
package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/campusworks/accounts-api/internal/models"
	"github.com/campusworks/accounts-api/internal/roles"
)

type Envelope struct {
	Code   string `json:"code"`
	Detail any    `json:"detail"`
	Data   any    `json:"data,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

func (r LogoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTP, validation.Required, is.Digit),
	)
}

type ResetPasswordRequest struct {
	Email             string `json:"email"`
	NewPassword       string `json:"new_password"`
	ConfirmedPassword string `json:"confirmed_password"`
	OTP               string `json:"otp"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.ConfirmedPassword, validation.Required),
		validation.Field(&r.OTP, validation.Required, is.Digit),
	)
}

type ChangePasswordRequest struct {
	OldPassword       string `json:"old_password"`
	NewPassword       string `json:"new_password"`
	ConfirmedPassword string `json:"confirmed_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.ConfirmedPassword, validation.Required),
	)
}

type FirstTimePasswordRequest struct {
	NewPassword       string `json:"new_password"`
	ConfirmedPassword string `json:"confirmed_password"`
}

func (r FirstTimePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required),
		validation.Field(&r.ConfirmedPassword, validation.Required),
	)
}

type CreateUserRequest struct {
	Email     string              `json:"email"`
	Password  string              `json:"password"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Role      string              `json:"role"`
	ManagerID *uuid.UUID          `json:"manager_id,omitempty"`
	Profile   roles.ProfileFields `json:"profile"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.Required),
	)
}

type UpdateUserRequest struct {
	FirstName *string             `json:"first_name,omitempty"`
	LastName  *string             `json:"last_name,omitempty"`
	ManagerID *uuid.UUID          `json:"manager_id,omitempty"`
	Profile   roles.ProfileFields `json:"profile"`
}

type UserResponse struct {
	ID              uuid.UUID   `json:"id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Role            models.Role `json:"role"`
	Verified        bool        `json:"verified"`
	PasswordChanged bool        `json:"password_changed"`
	ManagerID       *uuid.UUID  `json:"manager_id,omitempty"`
	Profile         any         `json:"profile,omitempty"`
}

func NewUserResponse(u *models.User, profile any) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		Verified:        u.Verified,
		PasswordChanged: u.PasswordChanged,
		ManagerID:       u.ManagerID,
		Profile:         profile,
	}
}

type AuthResponse struct {
	User    UserResponse `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
}

type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
