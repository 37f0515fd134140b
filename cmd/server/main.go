// Command server runs the wrapped HTTP API.
//
// Startup order: environment (.env), configuration, logging, process
// supervisor (signals), tracing, database, object storage, routes, server.
// Any failure before the server listens exits with status 1.
//
//	@title			Wrapped API
//	@version		1.0
//	@description	Personalised year-in-review recaps: create, share, list and upload images.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-wrapped-backend/docs"
	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/config"
	httpapi "github.com/tbourn/go-wrapped-backend/internal/http"
	"github.com/tbourn/go-wrapped-backend/internal/observability"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
	"github.com/tbourn/go-wrapped-backend/internal/services"
	"github.com/tbourn/go-wrapped-backend/internal/storage"
	"github.com/tbourn/go-wrapped-backend/internal/supervisor"
	"github.com/tbourn/go-wrapped-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// purgeInterval is how often expired idempotency keys are deleted.
const purgeInterval = time.Hour

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(supervisor.ExitFatal)
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, nil)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := supervisor.New(supervisor.Options{DrainTimeout: cfg.ShutdownTimeout})
	sup.Listen(ctx)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, observability.Build{
		Version:     version,
		Environment: cfg.Env,
	})
	if err != nil {
		log.Error().Err(err).Msg("tracing setup failed")
		os.Exit(supervisor.ExitFatal)
	}
	sup.OnShutdown(shutdownTracing)

	db, err := repo.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(supervisor.ExitFatal)
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Error().Err(err).Msg("database migration failed")
		os.Exit(supervisor.ExitFatal)
	}
	sup.OnShutdown(repo.Closer(db))
	log.Info().Bool("postgres", repo.IsPostgresURL(cfg.DatabaseURL)).Msg("database ready")

	store, err := newStore(cfg)
	if err != nil {
		log.Error().Err(err).Msg("object storage setup failed")
		os.Exit(supervisor.ExitFatal)
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Config: cfg, DB: db, Store: store, Errors: sup})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return log.Logger.WithContext(ctx) },
	}
	sup.Register(srv)

	purger := services.NewWrappedService(db, cfg.IdempotencyTTL)
	sup.Go(func() { purger.PurgeIdempotency(ctx, purgeInterval) })

	log.Info().
		Str("addr", srv.Addr).
		Str("env", cfg.Env).
		Str("version", version).
		Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sup.HandleError(ctx, apperr.New("HTTP server failed: "+err.Error(), http.StatusInternalServerError, true, err))
	}

	// The supervisor drains and then exits the process with the right code.
	<-sup.Done()
	select {}
}

// newStore returns the S3-compatible store when a bucket is configured and an
// in-memory store otherwise. Production config requires a bucket.
func newStore(cfg config.Config) (storage.Store, error) {
	if cfg.S3.Bucket == "" {
		log.Warn().Msg("S3_BUCKET not set, uploads are kept in memory")
		return storage.NewMemory(), nil
	}
	return storage.NewMinio(storage.MinioConfig{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKeyID,
		SecretKey: cfg.S3.SecretAccessKey,
		UseSSL:    cfg.S3.UseSSL,
	})
}
