package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// AppConfig parámetros de la aplicación Fiber.
type AppConfig struct {
	Name        string
	CORSOrigins string
	// BodyLimit debe superar el tamaño máximo de subida para que el error sea de validación y no 413.
	BodyLimit int
	// WriteTimeout por respuesta; 0 usa DefaultWriteTimeout. El flujo /logs/live rearma su propio plazo.
	WriteTimeout time.Duration
}

// DefaultWriteTimeout plazo de escritura cuando AppConfig no define uno.
const DefaultWriteTimeout = 10 * time.Second

// NewApp construye la aplicación Fiber con el manejador de errores y los middlewares comunes.
func NewApp(cfg AppConfig, log *logger.Logger) *fiber.App {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: ErrorHandler(log),

		// El multipart se parsea en el handler; así un cuerpo roto llega como VALIDATION con su campo.
		DisablePreParseMultipartForm: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(log.WithComponent("http")))
	app.Use(Metrics())
	if cfg.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: cfg.CORSOrigins != "*",
		}))
	}
	return app
}
