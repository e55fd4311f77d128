package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/dto"
	"github.com/campusworks/accounts-api/internal/models"
)

// AdminRequired guards admin-only routes. Access is granted by the
// configured admin token header, a configured admin email list, or an
// admin role on the user row.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Envelope{
				Code:   apperr.ErrTokenInvalid.Code,
				Detail: "unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err == nil {
			if user.Role == models.RoleAdmin {
				return c.Next()
			}
			if contains(adminEmails, user.Email) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.Envelope{
			Code:   apperr.ErrForbidden.Code,
			Detail: "admin access required",
		})
	}
}

// SelfOrAdminRequired guards per-user routes: the authenticated user
// may act on their own account (the :id route param), anyone else
// needs admin access.
func SelfOrAdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	admin := AdminRequired(db, cfg)

	return func(c *fiber.Ctx) error {
		if userID, err := UserID(c); err == nil && c.Params("id") == userID.String() {
			return c.Next()
		}
		return admin(c)
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
