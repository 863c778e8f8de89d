package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/media"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/realtime"
	httpRouter "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Strs("applied", applied).Msg("migraciones al día")
	}

	metrics.Init()

	userRepo := postgres.NewUserRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	logRepo := postgres.NewActionLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	s3Client, err := media.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente de almacenamiento")
	}
	storage := media.NewS3Storage(s3Client, cfg.Storage, log)

	// Con REDIS_URL el flujo en vivo se comparte entre instancias; sin él queda en memoria.
	var publisher ports.LogPublisher = realtime.NewMemoryBroker()
	if cfg.Redis.URL != "" {
		redisPub, err := realtime.NewRedisPublisher(cfg.Redis.URL, cfg.Redis.LogsChannel, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisPub.Close()
		publisher = redisPub
	}

	hasher := auth.BcryptHasher{}
	auditUC := usecase.NewActionLogUseCase(logRepo, txRunner, publisher, log)
	userUC := usecase.NewUserUseCase(userRepo, txRunner, storage, auditUC, hasher, cfg.Storage.AvatarsFolder, log)
	companyUC := usecase.NewCompanyUseCase(companyRepo, txRunner, storage, auditUC, cfg.Storage.LogosFolder, log)
	authUC := auth.NewAuthUseCase(userRepo, txRunner, auditUC, hasher, auth.JWTConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL(),
		RefreshTTL:    cfg.JWT.RefreshTTL(),
		Issuer:        cfg.JWT.Issuer,
	})

	if cfg.SuperAdmin.Email != "" {
		created, err := authUC.EnsureSuperAdmin(ctx, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("sembrar super admin")
		}
		if created {
			log.Info().Str("email", cfg.SuperAdmin.Email).Msg("super admin creado")
		}
	}

	uploader, err := httpRouter.NewUploader(cfg.Upload.TempDir, int64(cfg.Upload.MaxBytes))
	if err != nil {
		log.Fatal().Err(err).Msg("directorio de subidas")
	}

	bodyLimit := cfg.HTTP.BodyLimit
	if floor := 2 * cfg.Upload.MaxBytes; bodyLimit < floor {
		bodyLimit = floor
	}
	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:         cfg.App.Name,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		BodyLimit:    bodyLimit,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, log)

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Backoffice API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "base de datos no disponible")
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		UserUC:    userUC,
		CompanyUC: companyUC,
		LogUC:     auditUC,
		Uploader:  uploader,
		Cookie: httpRouter.CookieConfig{
			Secure: cfg.Cookie.Secure,
			Domain: cfg.Cookie.Domain,
			MaxAge: cfg.JWT.RefreshTTL(),
		},
		AccessSecret:  cfg.JWT.AccessSecret,
		AuthRateLimit: cfg.HTTP.AuthRateLimit,
		Live: httpRouter.LiveConfig{
			Heartbeat:    cfg.HTTP.LiveHeartbeat,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		Log: log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
