package middleware

import (
	"runtime/debug"
	"slices"

	"docchat/config"
	"docchat/pkg/apperror"
	"docchat/pkg/apperror/status"
	"docchat/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/google/uuid"
)

// Register installs the global middleware chain in order: recovery, request
// id, CORS, connection limiter.
func Register(app *fiber.App, cfg *config.Config) {
	app.Use(panicRecoveryMiddleware())
	app.Use(requestIDMiddleware())
	app.Use(corsMiddleware(cfg.Cors))
	if cfg.Server.Concurrency > 0 {
		app.Use(connectionLimiterMiddleware(NewConnectionLimiter(cfg.Server.Concurrency)))
	}
}

// ConnectionLimiter limits the number of concurrent connections
type ConnectionLimiter struct {
	limit    int
	waitlist chan struct{}
}

func NewConnectionLimiter(limit int) *ConnectionLimiter {
	return &ConnectionLimiter{
		limit:    limit,
		waitlist: make(chan struct{}, limit),
	}
}

func (cl *ConnectionLimiter) Acquire() bool {
	select {
	case cl.waitlist <- struct{}{}:
		return true
	default:
		return false
	}
}

func (cl *ConnectionLimiter) Release() {
	select {
	case <-cl.waitlist:
	default:
	}
}

// connectionLimiterMiddleware creates a middleware for connection limiting
func connectionLimiterMiddleware(limiter *ConnectionLimiter) fiber.Handler {
	return func(c fiber.Ctx) error {
		if !limiter.Acquire() {
			return apperror.WriteError(config.ModuleServer, c, fiber.StatusServiceUnavailable,
				apperror.Code(status.ErrorCodeInternal), "Server is at maximum capacity")
		}
		defer limiter.Release()
		return c.Next()
	}
}

// requestIDMiddleware makes sure every request carries X-Request-ID, on the
// request for handlers and on the response for clients.
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request().Header.Set(fiber.HeaderXRequestID, id)
		}
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

func corsMiddleware(cc config.CorsConfig) fiber.Handler {
	// a wildcard origin cannot be combined with credentials
	credentials := cc.AllowCredentials && !slices.Contains(cc.AllowOrigins, "*")
	if cc.AllowCredentials && !credentials {
		logger.Warn("%v: allow_credentials ignored with wildcard origin", config.ModuleCors)
	}
	return cors.New(cors.Config{
		AllowOrigins:     cc.AllowOrigins,
		AllowMethods:     cc.AllowMethods,
		AllowHeaders:     cc.AllowHeaders,
		AllowCredentials: credentials,
		ExposeHeaders:    []string{fiber.HeaderXRequestID},
	})
}

// panicRecoveryMiddleware creates a middleware for panic recovery
func panicRecoveryMiddleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"panic":      r,
					"method":     c.Method(),
					"path":       c.Path(),
					"ip":         c.IP(),
					"user_agent": c.Get("User-Agent"),
					"stack":      string(debug.Stack()),
				}).Errorf("Panic recovered")

				err = apperror.WriteError(config.ModuleServer, c, fiber.StatusInternalServerError,
					apperror.Code(status.ErrorCodeInternal), "An unexpected error occurred")
			}
		}()
		return c.Next()
	}
}
