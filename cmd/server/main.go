package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"clinic-scheduler/internal/auth"
	"clinic-scheduler/internal/config"
	"clinic-scheduler/internal/handler"
	"clinic-scheduler/internal/memstore"
	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/rpc"
	"clinic-scheduler/internal/service"
	"clinic-scheduler/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-scheduler",
		Short: "Clinic appointment scheduling API",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			memory, _ := cmd.Flags().GetBool("memory")
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(memory, migrate)
		},
	}
	cmd.Flags().Bool("memory", false, "Keep data in process memory instead of PostgreSQL")
	cmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	return cmd
}

type repositories interface {
	service.Repositories
	Ping(ctx context.Context) error
}

func runServer(memory, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo repositories
	if memory {
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		repo = memstore.New()
	} else {
		if err := cfg.RequireDatabase(); err != nil {
			logger.Fatal().Err(err).Msg("invalid config")
		}
		pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		if migrate {
			n, err := store.NewMigrator(pool).Up(ctx)
			if err != nil {
				logger.Fatal().Err(err).Msg("migration failed")
			}
			logger.Info().Int("applied", n).Msg("migrations up to date")
		}
		repo = store.New(pool)
	}

	iss := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	identity := service.NewIdentity(repo, iss, logger)
	ledger := service.NewLedger(repo, logger)
	bookings := service.NewBookings(repo, logger)
	gate := service.NewGate(repo)

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rl.Run(ctx)

	h := handler.New(handler.Deps{
		Identity: identity,
		Users:    service.NewUsers(repo, logger),
		Ledger:   ledger,
		Bookings: bookings,
		Gate:     gate,
		Issuer:   iss,
		Limiter:  rl,
		Metrics:  middleware.NewMetrics(),
		Store:    repo,
	})
	e := handler.NewServer(h, logger, cfg.CORSOrigins)

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.UnaryLogger(logger),
		middleware.RateLimitUnary(rl),
		middleware.Auth(iss, rpc.OpenMethods...),
	))
	rpc.Register(grpcSrv, rpc.New(identity, ledger, bookings, gate))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen")
	}
	go func() {
		logger.Info().Str("port", cfg.GRPCPort).Msg("grpc server starting")
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *store.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, m *store.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Printf("%-10s %-30s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					state, at := "pending", "-"
					if s.Applied {
						state = "applied"
						at = s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%-10d %-30s %-10s %s\n", s.Version, s.Name, state, at)
				}
				return nil
			})
		},
	})
	return cmd
}

func withMigrator(fn func(ctx context.Context, m *store.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, store.NewMigrator(pool))
}
