// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, the error boundary, panic
// recovery, metrics, compression, CORS, security headers, idempotency, rate
// limiting and session gates.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
	"github.com/tbourn/go-wrapped-backend/internal/config"
	"github.com/tbourn/go-wrapped-backend/internal/http/handlers"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
	"github.com/tbourn/go-wrapped-backend/internal/http/pipeline"
	"github.com/tbourn/go-wrapped-backend/internal/services"
	"github.com/tbourn/go-wrapped-backend/internal/storage"
)

// Fallback messages.
const (
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
)

// KindMethodNotAllowed tags 405 responses.
const KindMethodNotAllowed = "MethodNotAllowedError"

// multipartOverhead is allowed on top of the image limit for the multipart
// envelope (boundaries, part headers, other fields).
const multipartOverhead = 1 << 20

// Deps are the collaborators RegisterRoutes needs.
type Deps struct {
	Config config.Config
	DB     *gorm.DB
	// Store holds uploaded images. A nil store makes upload and image
	// requests fail with 503.
	Store storage.Store
	// Errors renders request failures; normally the process supervisor.
	Errors middleware.ErrorHandler
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. ContextLogger: request-scoped logger carrying the id
//  4. RedactingLogger: access log with PII scrubbing
//  5. Metrics
//  6. Gzip (outside the boundary so error bodies are compressed too)
//  7. ErrorBoundary: renders whatever the chain recorded
//  8. Recovery: panics in plain middleware become catastrophic faults
//  9. CORS and security headers
//
// Per route: body limits, idempotency validation before rate limiting (so
// replays bypass it), and the session gate on admin endpoints.
func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.ContextLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{handlers.ImagePath, "/metrics"})))
	r.Use(middleware.ErrorBoundary(d.Errors))
	r.Use(middleware.Recovery())
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	r.NoRoute(pipeline.Wrap(func(c *gin.Context) error {
		return apperr.NotFound(MsgRouteNotFound)
	}, pipeline.Options{Silent: true}))
	r.NoMethod(pipeline.Wrap(func(c *gin.Context) error {
		e := apperr.New(MsgMethodNotAllowed, http.StatusMethodNotAllowed, false, nil)
		e.Kind = KindMethodNotAllowed
		return e
	}, pipeline.Options{Silent: true}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", middleware.DevOnly(cfg.IsDevelopment()), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/storage
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)
	authSvc := services.NewAuthService(tokens, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	wrappedSvc := services.NewWrappedService(d.DB, cfg.IdempotencyTTL)
	uploadSvc := services.NewUploadService(d.Store, handlers.ImageURL)
	cookies := auth.CookieOptions{Domain: cfg.Auth.CookieDomain, Secure: !cfg.IsDevelopment()}
	h := handlers.New(wrappedSvc, authSvc, uploadSvc, cookies)

	loginRL := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	writeRL := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClient())
	session := middleware.RequireSession(tokens, middleware.SessionOptions{
		Policy:  cfg.Auth.SessionPolicy,
		IsAdmin: authSvc.IsAdmin,
	})
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, wrappedSvc.HasReplay)
	jsonBody := limitBody(cfg.MaxBodyBytes)

	root := pipeline.NewRouter(&r.RouterGroup, pipeline.Options{Name: "Root Router"})
	root.GET("/ping", h.Ping)

	api := pipeline.NewRouter(r.Group("/api"), pipeline.Options{Name: "API Router"})
	api.GET("/ping", h.APIPing)
	api.POST("/ping", h.APIPingEcho, jsonBody)

	authR := api.Group("/auth")
	authR.POST("/login", h.Login, jsonBody, loginRL.Handler())
	authR.POST("/logout", h.Logout)

	wr := pipeline.NewRouter(r.Group("/api/wrapped"), pipeline.Options{Name: "Wrapped Router"})
	wr.POST("/upload", h.UploadImage, limitBody(services.MaxUploadBytes+multipartOverhead), writeRL.Handler())
	wr.GET("/image", h.GetImage)
	wr.GET("/stats", h.WrappedStats, session)
	wr.GET("/list", h.ListWrapped, session)
	wr.POST("", h.CreateWrapped, jsonBody, idem, writeRL.Handler())
	wr.GET("/:slug", h.GetWrapped)
}

// corsMiddleware allows credentialed requests from the configured origins.
// Without an allow-list every origin is accepted, but then without
// credentials, since browsers reject "*" on credentialed responses.
func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Retry-After", handlers.HeaderReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
// Requests exceeding the cap cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
