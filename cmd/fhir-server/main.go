package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicore/interop/internal/config"
	"github.com/clinicore/interop/internal/domain/admin"
	"github.com/clinicore/interop/internal/domain/clinical"
	"github.com/clinicore/interop/internal/domain/identity"
	"github.com/clinicore/interop/internal/domain/medication"
	"github.com/clinicore/interop/internal/domain/scheduling"
	"github.com/clinicore/interop/internal/platform/audit"
	"github.com/clinicore/interop/internal/platform/auth"
	"github.com/clinicore/interop/internal/platform/db"
	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/internal/platform/middleware"
)

const serverVersion = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhir-server",
		Short: "Clinicore FHIR R4 interoperability server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FHIR API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	cmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := buildRouter(cfg, pool, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func buildRouter(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "If-Match", "X-Request-ID"},
	}))

	// SMART discovery and the CapabilityStatement stay reachable without a
	// token so clients can negotiate before authenticating.
	auth.RegisterSMARTEndpoints(e.Group(""), cfg.AuthIssuer)
	metadataGroup := e.Group("/fhir")
	metadataGroup.Use(fhir.ContentTypeMiddleware())
	metadataGroup.GET("/metadata", buildCapability(cfg.BaseURL).Handler())

	fhirGroup := e.Group("/fhir")
	fhirGroup.Use(fhir.ContentTypeMiddleware())
	if cfg.IsDev() {
		fhirGroup.Use(auth.DevAuthMiddleware())
	} else {
		fhirGroup.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAud,
			SigningKey: []byte(cfg.AuthSecret),
		}))
	}

	auditor := audit.NewLogRecorder(logger)

	identitySvc := identity.NewService(
		identity.NewPatientRepository(pool),
		identity.NewDoctorRepository(pool),
		auditor,
	)
	adminSvc := admin.NewService(admin.NewClinicRepository(pool), auditor)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepository(pool), auditor)
	clinicalSvc := clinical.NewService(
		clinical.NewLabResultRepository(pool),
		clinical.NewDiagnosisRepository(pool),
		auditor,
	)
	medicationSvc := medication.NewService(medication.NewPrescriptionRepository(pool), auditor)

	identity.NewHandler(identitySvc, cfg.BaseURL).RegisterRoutes(fhirGroup)
	admin.NewHandler(adminSvc, cfg.BaseURL).RegisterRoutes(fhirGroup)
	scheduling.NewHandler(schedulingSvc, cfg.BaseURL).RegisterRoutes(fhirGroup)
	clinical.NewHandler(clinicalSvc, cfg.BaseURL).RegisterRoutes(fhirGroup)
	medication.NewHandler(medicationSvc, cfg.BaseURL).RegisterRoutes(fhirGroup)

	// Bundle processing dispatches to a subset of entry interactions per
	// resource type.
	registry := fhir.NewRegistry()
	registry.Register("Patient", identity.NewPatientEntryHandler(identitySvc), fhir.Interactions{
		Create: true, Read: true, Update: true, Delete: true,
	})
	registry.Register("Practitioner", identity.NewPractitionerEntryHandler(identitySvc), fhir.Interactions{
		Create: true, Read: true,
	})
	registry.Register("Organization", admin.NewEntryHandler(adminSvc), fhir.Interactions{
		Create: true,
	})
	registry.Register("Appointment", scheduling.NewEntryHandler(schedulingSvc), fhir.Interactions{
		Create: true,
	})
	registry.Register("Observation", clinical.NewObservationEntryHandler(clinicalSvc), fhir.Interactions{
		Create: true,
	})
	fhir.NewBundleHandler(registry, db.NewPoolTxRunner(pool)).RegisterRoutes(fhirGroup)

	everything := fhir.NewEverythingHandler(cfg.BaseURL, identitySvc.EverythingPatientFetcher())
	everything.RegisterFetcher("Appointment", schedulingSvc.EverythingFetcher())
	everything.RegisterFetcher("Condition", clinicalSvc.ConditionEverythingFetcher())
	everything.RegisterFetcher("MedicationRequest", medicationSvc.EverythingFetcher())
	everything.RegisterFetcher("Observation", clinicalSvc.ObservationEverythingFetcher())
	everything.RegisterRoutes(fhirGroup)

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "up"})
	})

	return e
}

func buildCapability(baseURL string) *fhir.CapabilityBuilder {
	b := fhir.NewCapabilityBuilder(baseURL, serverVersion)
	b.SetOAuthURIs(baseURL+"/oauth/authorize", baseURL+"/oauth/token")

	b.AddResource("Patient", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "name", Type: "string"},
		{Name: "identifier", Type: "token"},
		{Name: "gender", Type: "token"},
		{Name: "birthdate", Type: "date"},
	})
	b.AddResource("Practitioner", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "name", Type: "string"},
		{Name: "identifier", Type: "token"},
	})
	b.AddResource("Organization", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "name", Type: "string"},
		{Name: "identifier", Type: "token"},
	})
	b.AddResource("Appointment", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "patient", Type: "reference"},
		{Name: "practitioner", Type: "reference"},
		{Name: "date", Type: "date"},
		{Name: "status", Type: "token"},
	})
	b.AddResource("Observation", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "patient", Type: "reference"},
		{Name: "date", Type: "date"},
		{Name: "status", Type: "token"},
		{Name: "code", Type: "string"},
	})
	b.AddResource("Condition", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "patient", Type: "reference"},
		{Name: "code", Type: "token"},
	})
	b.AddResource("MedicationRequest", fhir.DefaultInteractions(), []fhir.SearchParam{
		{Name: "patient", Type: "reference"},
		{Name: "status", Type: "token"},
		{Name: "authoredon", Type: "date"},
	})
	return b
}
