package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/mietgram/campus-api/docs"
	"github.com/mietgram/campus-api/internal/api/handler"
	"github.com/mietgram/campus-api/internal/api/middleware"
	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

// RateLimit is the per-client token bucket applied to API routes.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Log      zerolog.Logger
	Tokens   ports.TokenIssuer
	Users    middleware.IdentityLookup
	Auth     ports.AuthService
	Posts    ports.PostService
	Social   ports.SocialService
	Captions ports.CaptionService
	Relay    ports.ChatRelay
	Checks   map[string]handler.DependencyCheck
	Limit    RateLimit
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "mietgram",
		Subsystem: "http",
		Skipper:   isProbe,
	}))
	if d.Limit.PerSecond > 0 {
		e.Use(rateLimiter(d.Limit))
	}

	authHandler := handler.NewAuthHandler(d.Auth)
	postHandler := handler.NewPostHandler(d.Posts)
	userHandler := handler.NewUserHandler(d.Social)
	adminHandler := handler.NewAdminHandler(d.Social)
	captionHandler := handler.NewCaptionHandler(d.Captions)
	chatHandler := handler.NewChatHandler(d.Relay, d.Log.With().Str("component", "chat").Logger())
	requireAuth := middleware.Auth(d.Tokens, d.Users)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/verify/:token", authHandler.Verify)

	// --- Posts ---
	posts := e.Group("/posts", requireAuth)
	posts.GET("/feed", postHandler.Feed)
	posts.POST("", postHandler.Create)
	posts.POST("/:id/like", postHandler.Like)
	posts.POST("/:id/comments", postHandler.Comment)
	posts.POST("/:id/archive", postHandler.Archive)
	posts.DELETE("/:id/archive", postHandler.Unarchive)

	// --- Users ---
	users := e.Group("/users", requireAuth)
	users.PATCH("/me", userHandler.UpdateMe)
	users.GET("/:username", userHandler.Profile)
	users.POST("/:id/follow", userHandler.Follow)
	users.DELETE("/:id/follow", userHandler.Unfollow)

	// --- Admin ---
	adminGroup := e.Group("/admin", requireAuth, middleware.RBAC(domain.RoleAdmin))
	adminGroup.POST("/users/:id/ban", adminHandler.Ban)
	adminGroup.DELETE("/users/:id/ban", adminHandler.Unban)

	// --- AI & chat ---
	e.POST("/ai/caption", captionHandler.Suggest, requireAuth)
	e.GET("/chats/ws", chatHandler.Serve, requireAuth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func isProbe(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/health") || p == "/metrics" || strings.HasPrefix(p, "/swagger")
}

func rateLimiter(l RateLimit) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Skipper: isProbe,
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(l.PerSecond),
			Burst:     l.Burst,
			ExpiresIn: 15 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "rate limiter could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests from this IP, please try again later")
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      isProbe,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
