package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/lwalden/isd-weather-api/internal/api/http"
	"github.com/lwalden/isd-weather-api/internal/config"
	"github.com/lwalden/isd-weather-api/internal/etl"
	"github.com/lwalden/isd-weather-api/internal/logging"
	"github.com/lwalden/isd-weather-api/internal/scheduler"
	"github.com/lwalden/isd-weather-api/internal/store"
	"github.com/lwalden/isd-weather-api/internal/weather"
	"github.com/lwalden/isd-weather-api/internal/weather/nws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := logging.New(cfg.Env)

	// Catalog and archive, behind a read-through cache.
	sqlStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer sqlStore.Close()
	cached := store.NewCachedStore(sqlStore, cfg.CacheTTL)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	nwsClient := nws.NewClient(httpClient, nws.ClientConfig{
		BaseURL:     cfg.NWSBaseURL,
		UserAgent:   cfg.NWSUserAgent,
		MaxAttempts: cfg.RetryAttempts,
		RetryDelay:  cfg.RetryDelay,
	})

	service := weather.NewService(cached, cached, nwsClient)

	// Optional periodic refresh of the current year's archive.
	downloader := etl.NewDownloader(httpClient, cfg.ISDBaseURL, cfg.SpoolDir,
		cfg.DownloadBatchSize, cfg.DownloadBatchDelay, slogger)
	pipeline := etl.NewPipeline(sqlStore, downloader, cfg.SpoolDir, slogger)

	sched := scheduler.New(pipeline, cached, cfg.RefreshInterval, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "isd-weather-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "isd-weather-api",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
