package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/api"
	"github.com/rebloomsa/social-publisher/internal/api/handlers"
	"github.com/rebloomsa/social-publisher/internal/api/middleware"
	job "github.com/rebloomsa/social-publisher/internal/jobs"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"github.com/rebloomsa/social-publisher/internal/queue"
	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/service"
	"github.com/robfig/cron"
	"go.uber.org/ratelimit"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.SetupLogger(cfg.LogLevel)

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.AppEnv,
	}); err != nil {
		log.Printf("Sentry init failed: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	ctx := context.Background()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	loc := cfg.ReportLocation()
	postRepo := repository.NewPostRepository(db)

	// notifications
	mailer := service.NewSMTPMailer(cfg.SMTP)
	var notifier service.Notifier
	var asynqServer *asynq.Server
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client := asynq.NewClient(redisConn)
		defer client.Close()
		notifier = queue.NewQueuedNotifier(client, cfg.NotifyEmail)

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 2,
		})
		queueW := queue.NewQueue(mailer)
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeNotifyEmail, queueW.HandleNotifyEmailTask)

		go func() {
			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		notifier = service.NewDirectNotifier(mailer, cfg.NotifyEmail)
	}

	// platforms
	deps := service.AdapterDeps{
		DryRun:  cfg.DryRun,
		Limiter: ratelimit.New(cfg.PlatformRateLimit),
	}
	metaTokens := service.NewMetaTokenSource(cfg.Meta)
	adapters := service.NewPlatformRegistry(
		service.NewFacebookService(cfg.Meta, metaTokens, deps),
		service.NewInstagramService(cfg.Meta, metaTokens, cfg.ContainerPollInterval, cfg.ContainerTimeout, deps),
		service.NewTwitterService(cfg.X, deps),
	)

	// media
	var uploader service.ObjectUploader
	if cfg.R2.BucketName != "" {
		r2Service, err := service.NewR2Service(ctx, cfg.R2)
		if err != nil {
			log.Printf("R2 unavailable, fallback gallery disabled: %v", err)
		} else {
			uploader = r2Service
		}
	}
	media := service.NewMediaService([]service.ImageProvider{
		service.NewPexelsProvider(cfg.PexelsAPIKey, cfg.PexelsAPIURL, nil),
		service.NewGoogleImageProvider(cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX, option.WithUserAgent("social-publisher")),
	}, cfg.FallbackImageDir, uploader, nil)

	validator := service.NewBrandGuard(cfg.Brand)
	publishService := service.NewPublishService(postRepo, validator, media, adapters, notifier, service.PublishOptions{
		Location: loc,
	})
	postService := service.NewPostService(postRepo, validator, loc)
	reportService := service.NewReportService(postRepo, notifier, loc, cfg.DryRun, nil)

	if cfg.DryRun {
		slog.Warn("DRY RUN mode, posts will be logged but not published")
	}

	// cron jobs
	schedulerJob := job.NewSchedulerJob(postRepo, publishService, job.SchedulerOptions{
		Enabled: cfg.Enabled,
		Spacing: cfg.PostSpacing,
	})
	reportJob := job.NewReportJob(reportService, cfg.Enabled)

	c := cron.NewWithLocation(loc)
	if err := c.AddFunc("@every "+cfg.SchedulerInterval.String(), schedulerJob.Tick); err != nil {
		log.Fatalf("Invalid scheduler interval: %v", err)
	}
	if err := c.AddFunc(cfg.ReportSchedule, reportJob.SendDailyReport); err != nil {
		log.Fatalf("Invalid REPORT_SCHEDULE: %v", err)
	}
	if cfg.Enabled {
		c.Start()
		slog.Info("scheduler started", "interval", cfg.SchedulerInterval.String(), "report_schedule", cfg.ReportSchedule)
	} else {
		slog.Warn("scheduler DISABLED (SOCIAL_ENABLED=false)")
	}

	recoveryJob := job.NewRecoveryJob(postRepo, publishService, notifier, job.RecoveryOptions{
		Enabled:    cfg.Enabled,
		Lookback:   cfg.RecoveryLookback,
		Spacing:    cfg.RecoverySpacing,
		StaleAfter: cfg.StalePublishingAfter,
	})
	recoveryCtx, cancelRecovery := context.WithCancel(ctx)
	go func() {
		if _, err := recoveryJob.Run(recoveryCtx); err != nil {
			slog.Error("recovery failed", "error", err.Error())
		}
	}()

	// admin api
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	prometheus := fiberprometheus.New("social-publisher")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	api.Setup(app,
		middleware.NewAuthMiddleware(cfg.SecretKey),
		handlers.NewPostHandler(postService),
		handlers.NewReportHandler(reportService),
	)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, func() {
		cancelRecovery()
		c.Stop()
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
	})
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, stopWorkers func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	stopWorkers()
	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
