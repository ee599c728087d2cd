package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/digitalforms/formlink/internal/config"
	"github.com/digitalforms/formlink/internal/handler"
	"github.com/digitalforms/formlink/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.Health)
}

// RegisterPublic registers the customer-facing endpoints.  No JWT or
// role middleware applies here; the link code in the path is the only
// credential a customer ever holds.  The metadata lookup is served
// through the Redis response cache, and the submit endpoint sits behind
// the token-bucket rate limiter so a leaked link cannot be used to
// flood the store.  Both middlewares fail open when Redis is down.
func RegisterPublic(e *echo.Echo, l *handler.LinkHandler, s *handler.SubmissionHandler, rdb *redis.Client, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) {
	e.GET("/api/public/form/:linkCode", l.PublicForm, middleware.NewRedisCache(cacheCfg, rdb))
	e.POST("/api/submissions/submit/:linkCode", s.Submit, middleware.NewTokenBucket(rlCfg, rdb))
}
