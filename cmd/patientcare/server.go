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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/patientcare/patientcare/internal/config"
	"github.com/patientcare/patientcare/internal/domain/appointment"
	"github.com/patientcare/patientcare/internal/domain/availability"
	"github.com/patientcare/patientcare/internal/domain/identity"
	"github.com/patientcare/patientcare/internal/domain/records"
	"github.com/patientcare/patientcare/internal/domain/review"
	"github.com/patientcare/patientcare/internal/platform/auth"
	"github.com/patientcare/patientcare/internal/platform/db"
	"github.com/patientcare/patientcare/internal/platform/hipaa"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
	"github.com/patientcare/patientcare/internal/platform/middleware"
)

const version = "0.1.0"

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// backend is an opened document store. pool is set only for postgres.
type backend struct {
	store kvstore.Store
	pool  *pgxpool.Pool
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return &backend{store: kvstore.NewMemoryStore(), close: func() {}}, nil

	case config.BackendRedis:
		client, err := kvstore.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &backend{
			store: kvstore.NewRedisStore(client, cfg.StoreKeyPrefix),
			close: func() { client.Close() },
		}, nil

	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &backend{store: kvstore.NewPGStore(pool, cfg.DBSchema), pool: pool, close: pool.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// services is every domain service wired to one store.
type services struct {
	appointments *appointment.Service
	availability *availability.Service
	records      *records.Service
	identity     *identity.Service
	reviews      *review.Service
	accessLog    *hipaa.AccessLog
}

func newServices(store kvstore.Store, sm *metrics.StoreMetrics, cipher hipaa.FieldCipher, logger zerolog.Logger) *services {
	appts := appointment.NewService(appointment.NewStoreRepo(store, sm))
	users := identity.NewService(identity.NewStoreRepo(store, sm))
	return &services{
		appointments: appts,
		identity:     users,
		availability: availability.NewService(availability.NewStoreRepo(store, sm, logger), appts, users),
		records:      records.NewService(records.NewStoreRepo(store, sm, cipher), appts),
		reviews:      review.NewService(review.NewStoreRepo(store, sm), appts),
		accessLog:    hipaa.NewAccessLog(store, sm, hipaa.DefaultAccessLogLimit),
	}
}

// accessRecorder stores audit entries in the PHI access log. The request
// context may already be cancelled, so each write gets its own deadline.
func accessRecorder(log *hipaa.AccessLog) middleware.AuditRecorder {
	return middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return log.Record(ctx, &hipaa.AccessRecord{
			UserID:     entry.UserID,
			UserRoles:  entry.UserRoles,
			Resource:   entry.Resource,
			PatientID:  entry.PatientID,
			Action:     entry.Action,
			Method:     entry.Method,
			Path:       entry.Path,
			StatusCode: entry.StatusCode,
			IPAddress:  entry.IPAddress,
			RequestID:  entry.RequestID,
			AccessedAt: entry.Timestamp,
		})
	})
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if cfg.ResolvedAuthMode() == "development" {
		return auth.DevAuthMiddleware(cfg.DevUserID)
	}
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	return auth.JWTMiddleware(jwtCfg)
}

// buildServer assembles the echo instance. reg receives the HTTP and store
// metrics and is served on /metrics.
func buildServer(cfg *config.Config, be *backend, cipher hipaa.FieldCipher, logger zerolog.Logger, reg *prometheus.Registry) *echo.Echo {
	httpMetrics := metrics.NewHTTPMetrics(reg)
	storeMetrics := metrics.NewStoreMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Metrics(httpMetrics))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	// Unauthenticated endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/store", db.HealthHandler(cfg.StoreBackend, be.store, be.pool))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	svc := newServices(be.store, storeMetrics, cipher, logger)
	apiV1 := e.Group("/api/v1", authMiddleware(cfg), middleware.Audit(logger, accessRecorder(svc.accessLog)))

	appointment.NewHandler(svc.appointments).RegisterRoutes(apiV1)
	availability.NewHandler(svc.availability).RegisterRoutes(apiV1)
	records.NewHandler(svc.records).RegisterRoutes(apiV1)
	identity.NewHandler(svc.identity).RegisterRoutes(apiV1)
	review.NewHandler(svc.reviews).RegisterRoutes(apiV1)
	hipaa.NewAccessLogHandler(svc.accessLog).RegisterRoutes(apiV1)

	return e
}

func newCipher(cfg *config.Config, logger zerolog.Logger) (hipaa.FieldCipher, error) {
	cipher, err := hipaa.NewFieldCipher(cfg.HIPAAEncryptionKey)
	if err != nil {
		return nil, err
	}
	if cfg.HIPAAEncryptionKey == "" {
		logger.Warn().Msg("HIPAA_ENCRYPTION_KEY not set; PHI field-level encryption is disabled")
	} else {
		logger.Info().Msg("PHI field-level encryption enabled")
	}
	return cipher, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
		return err
	}
	defer be.close()
	logger.Info().Str("backend", cfg.StoreBackend).Msg("document store ready")
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn().Msg("memory store in use; data is lost on restart")
	}

	cipher, err := newCipher(cfg, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	e := buildServer(cfg, be, cipher, logger, reg)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth", cfg.ResolvedAuthMode()).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
