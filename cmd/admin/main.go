// Comando admin: tareas de operación que no pasan por la API (migraciones y
// siembra del super admin).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/realtime"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Herramientas de operación del backoffice",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace,debug,info,warn,error)")
	rootCmd.AddCommand(newMigrateCmd(), newSeedSuperAdminCmd())
}

// env configuración, logger y pool compartidos por los subcomandos.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
}

func open(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: logLevel})
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.pool.Close()

			applied, err := postgres.Migrate(cmd.Context(), e.pool)
			if err != nil {
				return err
			}
			e.log.Info().Strs("applied", applied).Msg("migraciones al día")
			return nil
		},
	}
}

func newSeedSuperAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed-superadmin",
		Short: "Crea el super admin si no existe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.pool.Close()

			if email == "" {
				email = e.cfg.SuperAdmin.Email
			}
			if password == "" {
				password = e.cfg.SuperAdmin.Password
			}
			if email == "" || password == "" {
				return fmt.Errorf("email y password son obligatorios (flags o SUPER_ADMIN_EMAIL/SUPER_ADMIN_PASSWORD)")
			}

			tx := postgres.NewTxRunner(e.pool)
			audit := usecase.NewActionLogUseCase(postgres.NewActionLogRepository(e.pool), tx, realtime.NewMemoryBroker(), e.log)
			uc := auth.NewAuthUseCase(postgres.NewUserRepository(e.pool), tx, audit, auth.BcryptHasher{}, auth.JWTConfig{})
			created, err := uc.EnsureSuperAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			e.log.Info().Str("email", email).Bool("created", created).Msg("super admin")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del super admin")
	cmd.Flags().StringVar(&password, "password", "", "contraseña del super admin")
	return cmd
}
