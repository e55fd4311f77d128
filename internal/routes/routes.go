package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/campusworks/accounts-api/internal/config"
	"github.com/campusworks/accounts-api/internal/handlers"
	"github.com/campusworks/accounts-api/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/login", authHandler.Login)
	auth.Post("/forget_password_request", authHandler.ForgetPasswordRequest)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Patch("/forget_password", authHandler.ForgetPassword)
	auth.Get("/token/refresh", authHandler.Refresh)

	// Auth — protected
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Patch("/auth/change_password", middleware.JWTProtected(cfg), authHandler.ChangePassword)
	api.Patch("/auth/first_time_password", middleware.JWTProtected(cfg), authHandler.FirstTimePassword)

	// Accounts — email verification is public (link from the welcome
	// mail); listing, creation and deletion are admin-only; reading and
	// updating a single account is open to that account's owner or an
	// admin.
	api.Get("/accounts/verify_email", accountHandler.VerifyEmail)
	api.Get("/accounts", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg), accountHandler.List)
	api.Post("/accounts", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg), accountHandler.Create)
	api.Get("/accounts/:id", middleware.JWTProtected(cfg), middleware.SelfOrAdminRequired(db, cfg), accountHandler.Get)
	api.Patch("/accounts/:id", middleware.JWTProtected(cfg), middleware.SelfOrAdminRequired(db, cfg), accountHandler.Update)
	api.Delete("/accounts/:id", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg), accountHandler.Delete)
}
