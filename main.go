package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"estatecrm/config"
	"estatecrm/middleware"
	"estatecrm/routes"
	"estatecrm/utils"
	"estatecrm/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			log.Warnf("Sentry init failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.MaxFileSize) * (cfg.MaxUploadFiles + 1),
	})

	corsConfig := middleware.DefaultCORSConfig()
	if cfg.FrontendURL != "" {
		corsConfig.AllowedOrigins = []string{cfg.FrontendURL}
	}
	app.Use(middleware.CORS(corsConfig))
	app.Use(middleware.APIRateLimiter(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mailer := utils.NewMailer(cfg); mailer != nil {
		go worker.NewReminderWorker(db, mailer).Start(ctx)
	} else {
		log.Info("SMTP not configured, task reminders disabled")
	}

	routes.SetupRoutes(app, db, cfg)

	log.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
