package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospital/hms/internal/config"
	"github.com/hospital/hms/internal/domain/account"
	"github.com/hospital/hms/internal/domain/appointment"
	"github.com/hospital/hms/internal/domain/catalog"
	"github.com/hospital/hms/internal/domain/facility"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/middleware"
	"github.com/hospital/hms/internal/platform/render"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital management web application and JSON API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// connect loads the configuration and opens the pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
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
			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, db.Schema()).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, db.Schema()).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

// userCmd bootstraps accounts, typically the first Admin when sign-up is
// closed.
func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := account.Registration{}
			r.Name, _ = cmd.Flags().GetString("name")
			r.Email, _ = cmd.Flags().GetString("email")
			r.Phone, _ = cmd.Flags().GetString("phone")
			r.Role, _ = cmd.Flags().GetString("role")
			r.Password, _ = cmd.Flags().GetString("password")
			r.ConfirmPassword = r.Password
			if r.Name == "" || r.Email == "" || r.Password == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}

			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			revokers := auth.Revokers{auth.NewPGSessionStore(pool), auth.NewPGTokenRegistry(pool)}
			svc := account.NewService(account.NewRepo(pool), revokers, db.NewTransactor(pool))
			u, err := svc.Register(ctx, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d).\n", u.Role, u.Email, u.UserID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("phone", "", "Phone number")
	createCmd.Flags().String("role", string(auth.RoleAdmin), "Role")
	createCmd.Flags().String("password", "", "Initial password")

	cmd.AddCommand(createCmd)
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN(), cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if cfg.AutoMigrate {
		n, err := db.NewMigrator(pool, db.Schema()).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", n).Msg("schema up to date")
	}

	sessions := auth.NewPGSessionStore(pool)
	if n, err := sessions.PurgeExpired(ctx); err != nil {
		logger.Warn().Err(err).Msg("purge expired sessions")
	} else if n > 0 {
		logger.Info().Int64("purged", n).Msg("removed expired sessions")
	}
	tokenRegistry := auth.NewPGTokenRegistry(pool)
	if n, err := tokenRegistry.PurgeExpired(ctx); err != nil {
		logger.Warn().Err(err).Msg("purge expired tokens")
	} else if n > 0 {
		logger.Info().Int64("purged", n).Msg("removed expired tokens")
	}

	key, generated, err := resolveTokenKey(cfg.SessionSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token key")
	}
	if generated {
		logger.Warn().Msg("SESSION_SECRET not set, bearer tokens will not survive a restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := newServer(serverDeps{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		pinger:   pool,
		sessions: sessions,
		tokens:   tokenRegistry,
		tx:       db.NewTransactor(pool),
		tokenKey: key,
		registry: reg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

type serverDeps struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pool     *pgxpool.Pool
	pinger   db.Pinger
	sessions auth.SessionStore
	// tokens may be nil for an in-memory registry.
	tokens   auth.TokenRegistry
	tx       db.Transactor
	tokenKey []byte
	registry *prometheus.Registry
}

// newServer wires repositories, services and handlers into an echo
// instance. Nothing here touches the database.
func newServer(d serverDeps) (*echo.Echo, error) {
	cfg, logger, pool := d.cfg, d.logger, d.pool

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	// Services. Appointment cleanup is shared by doctor and patient deletes.
	tokens := auth.NewTokenIssuer(d.tokenKey, cfg.TokenTTL, d.tokens)
	apptRepo := appointment.NewRepo(pool)
	users := account.NewService(account.NewRepo(pool), auth.Revokers{d.sessions, tokens}, d.tx)
	facilitySvc := facility.NewService(facility.NewDepartmentRepo(pool), facility.NewDoctorRepo(pool), apptRepo, d.tx)
	patientSvc := patient.NewService(patient.NewRepo(pool), facilitySvc, apptRepo, users, d.tx)
	apptSvc := appointment.NewService(apptRepo, patientSvc, d.tx)
	medicines := catalog.NewMedicineService(catalog.NewMedicineRepo(pool), patientSvc, d.tx)
	supplies := catalog.NewSupplyService(catalog.NewSupplyRepo(pool), patientSvc, d.tx)
	labTests := catalog.NewLabTestService(catalog.NewLabTestRepo(pool), patientSvc, d.tx)
	radiologyTests := catalog.NewRadiologyTestService(catalog.NewRadiologyTestRepo(pool), patientSvc, d.tx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = render.ErrorHandler(logger)

	metrics := middleware.NewMetrics(d.registry)
	cookie := auth.SessionCookie{Name: cfg.SessionCookie, Secure: cfg.IsProduction(), TTL: cfg.SessionTTL}
	authCfg := auth.AuthConfig{
		Sessions: d.sessions,
		Cookie:   cookie,
		Tokens:   tokens,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.SessionRefreshRole {
		authCfg.Refresh = users
	}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.BodyLimit("2M"))
	e.Use(metrics.Middleware(auth.AuthSkipper))
	e.Use(auth.Authenticate(authCfg))
	e.Use(middleware.Audit(logger))

	// Infrastructure
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(d.pinger))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))

	web := e.Group("")
	api := e.Group("/api")

	account.NewHandler(users, account.HandlerConfig{
		Sessions:         d.sessions,
		Cookie:           cookie,
		Tokens:           tokens,
		Logins:           metrics,
		RegistrationOpen: cfg.RegistrationOpen,
		Throttle: middleware.RateLimit(middleware.RateLimitConfig{
			PerMinute: cfg.LoginRatePerMinute,
			Burst:     cfg.LoginBurst,
		}),
	}).RegisterRoutes(web, api)
	account.NewDashboards(account.Boards(account.Counts{
		Patients:       patientSvc.Count,
		Appointments:   apptSvc.Count,
		Doctors:        facilitySvc.CountDoctors,
		Departments:    facilitySvc.CountDepartments,
		Users:          users.Count,
		Medicines:      medicines.Count,
		Supplies:       supplies.Count,
		LabTests:       labTests.Count,
		RadiologyTests: radiologyTests.Count,
	})).RegisterRoutes(web, api)
	facility.NewHandler(facilitySvc).RegisterRoutes(web, api)
	patient.NewHandler(patientSvc).RegisterRoutes(web, api)
	appointment.NewHandler(apptSvc).RegisterRoutes(web, api)
	catalog.NewHandler(medicines, supplies, labTests, radiologyTests).RegisterRoutes(web, api)

	return e, nil
}

// resolveTokenKey returns the bearer token signing key: SESSION_SECRET when
// set, else 32 random bytes. The second return value is true when a random
// key was generated.
func resolveTokenKey(secret string) ([]byte, bool, error) {
	if secret != "" {
		return []byte(secret), false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random token key: %w", err)
	}
	return key, true, nil
}
