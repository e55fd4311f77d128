package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/services"
)

type AccountHandler struct {
	accountService *services.AccountService
}

func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	user, profile, err := h.accountService.Create(&req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, "user_created", "user created", dto.NewUserResponse(user, profile))
}

func (h *AccountHandler) List(c *fiber.Ctx) error {
	users, err := h.accountService.List()
	if err != nil {
		return fail(c, err)
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i], nil))
	}
	return respond(c, fiber.StatusOK, "users_listed", "users listed", out)
}

func (h *AccountHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	user, err := h.accountService.GetByID(id)
	if err != nil {
		return fail(c, err)
	}

	profile, _ := h.accountService.Profile(user)
	return respond(c, fiber.StatusOK, "user_detail", "user detail", dto.NewUserResponse(user, profile))
}

func (h *AccountHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.accountService.Update(id, &req)
	if err != nil {
		return fail(c, err)
	}

	profile, _ := h.accountService.Profile(user)
	return respond(c, fiber.StatusOK, "user_updated", "user updated", dto.NewUserResponse(user, profile))
}

func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	if err := h.accountService.Delete(id); err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, "user_deleted", "user deleted", nil)
}

// VerifyEmail consumes the token from the welcome mail.
func (h *AccountHandler) VerifyEmail(c *fiber.Ctx) error {
	raw := c.Query("token")
	if raw == "" {
		return fail(c, apperr.ErrTokenInvalid)
	}

	user, err := h.accountService.VerifyEmail(raw)
	if err != nil {
		return fail(c, err)
	}

	profile, _ := h.accountService.Profile(user)
	return respond(c, fiber.StatusOK, "email_verified", "email verified", dto.NewUserResponse(user, profile))
}
