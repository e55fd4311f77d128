package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/middleware"
	"github.com/campusworks/accounts-api/internal/services"
)

type AuthHandler struct {
	authService    *services.AuthService
	accountService *services.AccountService
}

func NewAuthHandler(authService *services.AuthService, accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	user, pair, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		// An unknown email answers the same as a bad password.
		if errors.Is(err, apperr.ErrUserNotFound) {
			return fail(c, apperr.ErrInvalidCredentials)
		}
		return fail(c, err)
	}

	profile, _ := h.accountService.Profile(user)
	return respond(c, fiber.StatusOK, "login_success", "logged in", dto.AuthResponse{
		User:    dto.NewUserResponse(user, profile),
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authService.Logout(req.Refresh); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "logout_success", "logged out", nil)
}

// Refresh rotates a refresh token. The token is read from the refresh
// query parameter or the X-Refresh-Token header.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	raw := c.Query("refresh")
	if raw == "" {
		raw = c.Get("X-Refresh-Token")
	}
	if raw == "" {
		return badRequest(c, "refresh token is required")
	}

	pair, err := h.authService.Refresh(raw)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "token_refreshed", "token refreshed", dto.TokenPairResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}

func (h *AuthHandler) ForgetPasswordRequest(c *fiber.Ctx) error {
	var req dto.ForgetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authService.RequestReset(req.Email); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "otp_sent", "a passcode has been sent to your email", nil)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authService.VerifyOTP(req.Email, req.OTP); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "otp_verified", "passcode verified", nil)
}

func (h *AuthHandler) ForgetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.authService.ResetPassword(req.Email, req.NewPassword, req.ConfirmedPassword, req.OTP); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "password_reset", "password has been reset", nil)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.accountService.GetByID(userID)
	if err != nil {
		return fail(c, err)
	}

	if err := h.authService.ChangePassword(user, req.OldPassword, req.NewPassword, req.ConfirmedPassword); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "password_changed", "password has been changed", nil)
}

func (h *AuthHandler) FirstTimePassword(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req dto.FirstTimePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.accountService.GetByID(userID)
	if err != nil {
		return fail(c, err)
	}

	if err := h.authService.SetFirstTimePassword(user, req.NewPassword, req.ConfirmedPassword); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "first_password_set", "password has been set", nil)
}
