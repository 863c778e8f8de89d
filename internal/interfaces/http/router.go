package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/policy"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	UserUC       *usecase.UserUseCase
	CompanyUC    *usecase.CompanyUseCase
	LogUC        *usecase.ActionLogUseCase
	Uploader     *Uploader
	Cookie       CookieConfig
	AccessSecret string
	// AuthRateLimit peticiones por minuto e IP en login y contraseñas; 0 lo desactiva.
	AuthRateLimit int
	// Live intervalo de heartbeat y plazo de escritura del flujo SSE.
	Live LiveConfig
	Log  *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Cookie)
	authGroup := app.Group("/auth")
	limited := rateLimit(deps.AuthRateLimit)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", limited, authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/password/reset", limited, authHandler.ResetPassword)
	authGroup.Post("/password/set", limited, authHandler.SetPassword)

	// Rutas protegidas (requieren Bearer Token)
	protect := AuthMiddleware(deps.AccessSecret)

	// Users
	userHandler := NewUserHandler(deps.UserUC, deps.Uploader)
	users := app.Group("/users", protect)
	users.Get("/", Authorize(policy.Users, policy.List), userHandler.List)
	users.Get("/me", Authorize(policy.Profile, policy.Read), userHandler.GetMe)
	users.Patch("/me", Authorize(policy.Profile, policy.Update), userHandler.UpdateMe)
	users.Put("/me/avatar", Authorize(policy.Profile, policy.Update), userHandler.ChangeAvatar)
	users.Delete("/me/avatar", Authorize(policy.Profile, policy.DeleteMedia), userHandler.DeleteAvatar)
	users.Post("/admin", Authorize(policy.Users, policy.Create), userHandler.Create)
	users.Patch("/admin/:id", Authorize(policy.Users, policy.Update), userHandler.Update)
	users.Delete("/admin/:id", Authorize(policy.Users, policy.Delete), userHandler.Delete)
	users.Post("/admin/:id/restore", Authorize(policy.Users, policy.Restore), userHandler.Restore)

	// Companies
	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.Uploader)
	companies := app.Group("/companies", protect)
	companies.Post("/", Authorize(policy.Companies, policy.Create), companyHandler.Create)
	companies.Get("/", Authorize(policy.Companies, policy.List), companyHandler.List)
	companies.Get("/user", Authorize(policy.Companies, policy.ListOwn), companyHandler.ListOwn)
	companies.Get("/company/:id", Authorize(policy.Companies, policy.Read), companyHandler.GetByID)
	companies.Patch("/company/:id", Authorize(policy.Companies, policy.Update), companyHandler.Update)
	companies.Delete("/company/:id", Authorize(policy.Companies, policy.Delete), companyHandler.Delete)
	companies.Put("/company/:id/logo", Authorize(policy.Companies, policy.Update), companyHandler.ChangeLogo)
	companies.Delete("/company/:id/logo", Authorize(policy.Companies, policy.DeleteMedia), companyHandler.DeleteLogo)

	// Logs (super admin)
	logHandler := NewLogHandler(deps.LogUC, deps.Live, deps.Log)
	logs := app.Group("/logs", protect)
	logs.Get("/", Authorize(policy.Logs, policy.List), logHandler.List)
	logs.Get("/live", Authorize(policy.Logs, policy.Stream), logHandler.Live)
}

func rateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "demasiados intentos, intente más tarde")
		},
	})
}
