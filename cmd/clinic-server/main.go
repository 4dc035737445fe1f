package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/domain/prescription"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/lock"
	"github.com/clinic/clinic/internal/platform/metrics"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/notify"
)

const (
	requestTimeout  = 30 * time.Second
	bookingLockTTL  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment scheduling API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(fn func(m *db.Migrator) error) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		m, err := db.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Up(); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Println("Migrations applied successfully.")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				if err := m.Down(); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Println("Rolled back one migration.")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return fmt.Errorf("failed to read version: %w", err)
				}
				fmt.Printf("version=%d dirty=%t\n", v, dirty)
				return nil
			})
		},
	})

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := directory.NewService(
				directory.NewDoctorRepo(pool),
				directory.NewPatientRepo(pool),
				directory.NewAdminRepo(pool),
				scheduling.NewAppointmentRepo(pool),
				nil,
				zerolog.Nop(),
			)
			if err := svc.CreateAdmin(ctx, username, password); err != nil {
				return err
			}
			fmt.Printf("Admin %q created.\n", username)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Admin username")
	createCmd.Flags().String("password", "", "Admin password")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	signingKey, generated, err := resolveSigningKey(cfg.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve JWT signing key")
	}
	if generated {
		logger.Warn().Msg("JWT_SECRET not set; using a random key, tokens will not survive a restart")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid clinic time zone")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis
	var rdb *redis.Client
	var healthChecks []db.Check
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		healthChecks = append(healthChecks, db.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		logger.Info().Str("addr", opts.Addr).Msg("redis configured")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Token revocation
	var revoked auth.RevocationStore
	if rdb != nil {
		revoked = auth.NewRedisRevocationStore(rdb)
	} else {
		mem := auth.NewMemoryRevocationStore()
		defer mem.Close()
		revoked = mem
	}

	// Booking lock
	var locker lock.Locker
	switch cfg.BookingLock {
	case config.LockRedis:
		locker = lock.NewRedis(rdb, bookingLockTTL)
	case config.LockMemory:
		locker = lock.NewMemory()
	default:
		locker = lock.Noop{}
	}
	logger.Info().Str("backend", cfg.BookingLock).Msg("booking lock configured")

	// Notifications
	var notifier notify.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.NotifyFromEmail,
			FromName:  cfg.NotifyFromName,
		})
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// Repositories
	doctorRepo := directory.NewDoctorRepo(pool)
	patientRepo := directory.NewPatientRepo(pool)
	adminRepo := directory.NewAdminRepo(pool)
	apptRepo := scheduling.NewAppointmentRepo(pool)
	rxRepo := prescription.NewRepo(pool)

	// Services
	withTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	directorySvc := directory.NewService(doctorRepo, patientRepo, adminRepo, apptRepo, withTx, logger)
	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: signingKey,
		Issuer:     "clinic",
		TTL:        cfg.JWTTTL,
	}, revoked, directorySvc)
	directorySvc.SetTokenService(tokens)

	schedulingSvc := scheduling.NewService(apptRepo, doctorRepo, patientRepo, logger,
		scheduling.WithLocker(locker),
		scheduling.WithNotifier(notifier),
		scheduling.WithRecorder(m),
		scheduling.WithLocation(loc),
	)
	rxSvc := prescription.NewService(rxRepo, schedulingSvc, logger)

	gate := auth.NewGate(tokens, logger, m)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.Audit(logger))
	e.Use(middleware.RequestTimeout(requestTimeout))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           3 * time.Minute,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	loginLimit := middleware.RateLimit(middleware.LoginRateLimitConfig(cfg.LoginRateLimitRPS))

	// Routes
	directory.NewHandler(directorySvc, gate).RegisterRoutes(apiV1, loginLimit)
	scheduling.NewHandler(schedulingSvc, gate).RegisterRoutes(apiV1)
	prescription.NewHandler(rxSvc, gate).RegisterRoutes(apiV1)
	auth.RegisterLogoutRoute(apiV1, gate, tokens)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, healthChecks...))
	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}

	// Start
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", loc.String()).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// resolveSigningKey returns JWT_SECRET as the HS256 key, or a random 32-byte
// key when it is unset. Validate has already rejected an empty secret outside
// development. The second return value is true when a key was generated.
func resolveSigningKey(secret string) ([]byte, bool, error) {
	if secret != "" {
		return []byte(secret), false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate random signing key: %w", err)
	}
	return []byte(hex.EncodeToString(key)), true, nil
}
