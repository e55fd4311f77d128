// Package apperr defines the typed domain errors shared by all services.
// Each error carries a machine-readable code and an HTTP status; handlers
// translate them into the response envelope and never invent statuses of
// their own.
package apperr

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Error struct {
	Code    string   `json:"code"`
	Status  int      `json:"-"`
	Details []string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Code + ": " + strings.Join(e.Details, "; ")
}

// Detail returns the single detail string, or the joined list when the
// error aggregates several violations.
func (e *Error) Detail() any {
	if len(e.Details) == 1 {
		return e.Details[0]
	}
	return e.Details
}

// Is matches errors by code, so detail-carrying copies made with
// WithDetails still compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func New(code string, status int, detail string) *Error {
	return &Error{Code: code, Status: status, Details: []string{detail}}
}

// WithDetails returns a copy of e carrying the given detail list.
// Used by validation paths that aggregate every failing rule.
func (e *Error) WithDetails(details ...string) *Error {
	return &Error{Code: e.Code, Status: e.Status, Details: details}
}

// As unwraps err into an *Error, or nil when err is not a domain error.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

var (
	ErrUserNotFound = New("user_not_found", fiber.StatusNotFound, "user not found")
	ErrOTPNotFound  = New("otp_not_found", fiber.StatusNotFound, "no passcode requested for this account")

	ErrUnknownRole      = New("unknown_role", fiber.StatusBadRequest, "unknown user role")
	ErrProfileInvalid   = New("profile_invalid", fiber.StatusBadRequest, "profile fields failed validation")
	ErrPasswordMismatch = New("password_mismatch", fiber.StatusBadRequest, "passwords do not match")
	ErrWeakPassword     = New("weak_password", fiber.StatusBadRequest, "password does not meet strength rules")
	ErrEmailTaken       = New("email_taken", fiber.StatusConflict, "email already registered")
	ErrBadRequest       = New("bad_request", fiber.StatusBadRequest, "invalid request body")

	ErrInvalidCredentials = New("invalid_credentials", fiber.StatusUnauthorized, "invalid email or password")
	ErrWrongPassword      = New("wrong_password", fiber.StatusUnauthorized, "current password is incorrect")

	ErrTokenExpired     = New("token_expired", fiber.StatusUnauthorized, "token has expired")
	ErrTokenNoType      = New("token_no_type", fiber.StatusUnauthorized, "token has no type claim")
	ErrTokenWrongType   = New("token_wrong_type", fiber.StatusUnauthorized, "token has wrong type claim")
	ErrTokenNoID        = New("token_no_id", fiber.StatusUnauthorized, "token has no jti claim")
	ErrTokenBlacklisted = New("token_blacklisted", fiber.StatusUnauthorized, "token has been revoked")
	ErrTokenInvalid     = New("token_invalid", fiber.StatusUnauthorized, "token is invalid")

	ErrUserInactive       = New("user_inactive", fiber.StatusForbidden, "account is inactive")
	ErrForbidden          = New("forbidden", fiber.StatusForbidden, "permission denied")
	ErrPasswordAlreadySet = New("password_already_set", fiber.StatusForbidden, "first-time password has already been set")

	ErrOTPExpired     = New("otp_expired", fiber.StatusNotAcceptable, "passcode has expired")
	ErrOTPMismatch    = New("otp_mismatch", fiber.StatusNotAcceptable, "passcode does not match")
	ErrOTPNotVerified = New("otp_not_verified", fiber.StatusNotAcceptable, "passcode has not been verified")

	ErrServerFailure = New("server_failure", fiber.StatusInternalServerError, "internal server error")
)
