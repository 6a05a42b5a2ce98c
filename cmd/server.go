package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. Logger and configuration
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	logx.Info("🚀 Starting Portal API Server...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 3. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Portal API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(cfg.Server.Debug),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Server.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	app.Use(logx.FiberRequestFields())

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID, Retry-After",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health and metrics
	app.Get("/health", healthCheckHandler(container))
	app.Get("/metrics", metricsx.Handler(container.Registry))

	// 6. Register Routes
	// POST /api/v1/users, /api/v1/verification/code,
	// /api/v1/auth/recovery, /api/v1/auth/link/redeem
	container.IAM.Handlers.RegisterRoutes(app, container.IAM.AuthMiddleware)
	logx.Info("✓ Portal routes registered")

	// 7. 404 Handler
	app.Use(notFoundHandler)

	// 8. Start Server with Graceful Shutdown
	startServer(app, cfg.Server.Port, cancel)
}

// healthCheckHandler reports database and Redis reachability
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "portal-api",
		}

		if err := container.DB.PingContext(c.UserContext()); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(c.UserContext()).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return errx.NotFound("route not found").
		WithDetail("path", c.Path()).
		WithDetail("method", c.Method())
}

// globalErrorHandler logs the failure and writes the error envelope
func globalErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": c.Get(fiber.HeaderXRequestID),
		}).WithError(err)

		if errx.TypeOf(err) == errx.TypeInternal {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		return errx.WriteFiber(c, err, debug)
	}
}

// startServer listens and blocks until a shutdown signal arrives
func startServer(app *fiber.App, port string, stopBackground context.CancelFunc) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	stopBackground()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
