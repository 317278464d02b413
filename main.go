package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"society_tickets/config"
	"society_tickets/constants"
	"society_tickets/database"
	"society_tickets/handler"
	"society_tickets/helper"
	"society_tickets/logger"
	"society_tickets/mailer"
	"society_tickets/payment"
	"society_tickets/realtime"
	"society_tickets/reconcile"
	"society_tickets/repository"
	"society_tickets/router"
	"society_tickets/scheduler"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.App.IsDevelopment(),
	})
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.ConnectDB(cfg)

	hub := realtime.NewHub(log)
	var publisher realtime.Publisher = realtime.NewLocalPublisher(hub)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
		publisher = realtime.NewRedisPublisher(rdb)
		go hub.Run(ctx, rdb, constants.CHECKIN_CHANNEL)
	}

	var images helper.ImageUploader
	if cfg.Cloudinary.Enabled() {
		uploader, err := helper.InitCloudinary(cfg.Cloudinary)
		if err != nil {
			log.Fatal("failed to init cloudinary", zap.Error(err))
		}
		images = uploader
	}

	payments := payment.NewStripeProvider(cfg.Stripe, log)
	attendees := repository.NewAttendeeRepository(db)
	engine := reconcile.NewEngine(attendees, log)
	poller := reconcile.NewPoller(engine, payment.NewSessionSource(payments), reconcile.Backoff{
		Initial:  cfg.Poller.InitialDelay,
		Factor:   cfg.Poller.Factor,
		Max:      cfg.Poller.MaxDelay,
		Attempts: cfg.Poller.Attempts,
	}, log)

	h := handler.New(handler.Deps{
		Config:    cfg,
		DB:        db,
		Engine:    engine,
		Poller:    poller,
		Payments:  payments,
		Mailer:    mailer.New(cfg.Mail, cfg.App.URL, log),
		Images:    images,
		Publisher: publisher,
		Hub:       hub,
		Log:       log,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: handler.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.App.WebOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, x-admin-password",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie, Retry-After",
		MaxAge:           600,
	}))

	router.SetupRoutes(app, h, cfg)

	jobs, err := scheduler.Start(attendees, engine, h.SendTicketOnce, repository.NewEventRepository(db), log)
	if err != nil {
		log.Fatal("failed to start schedulers", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := jobs.Stop(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
	}()

	log.Info("server starting",
		zap.Int("port", cfg.App.Port),
		zap.String("env", cfg.App.Environment),
		zap.String("stripe_mode", payments.Mode()))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
