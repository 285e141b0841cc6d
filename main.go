package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dreamstate-ticketing/internal/auth"
	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/database/migrations"
	"dreamstate-ticketing/internal/factions"
	"dreamstate-ticketing/internal/kafka"
	"dreamstate-ticketing/internal/logger"
	"dreamstate-ticketing/internal/notify"
	"dreamstate-ticketing/internal/order"
	order_db "dreamstate-ticketing/internal/order/db"
	"dreamstate-ticketing/internal/order/order_api"
	rediswrap "dreamstate-ticketing/internal/order/redis"
	"dreamstate-ticketing/internal/scores"
	scores_db "dreamstate-ticketing/internal/scores/db"
	"dreamstate-ticketing/internal/scores/scores_api"
	"dreamstate-ticketing/internal/sse"
	ticket_db "dreamstate-ticketing/internal/tickets/db"
	qr "dreamstate-ticketing/internal/tickets/qr_generator"
	tickets "dreamstate-ticketing/internal/tickets/service"
	"dreamstate-ticketing/internal/tickets/ticket_api"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Warn("REDIS", "Redis disabled; locks, roster cache and session revocation are off")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func newSender(cfg config.EmailConfig, log *logger.Logger) notify.Sender {
	if !cfg.Enabled {
		log.Warn("EMAIL", "Email delivery disabled; confirmations are logged only")
		return &notify.LogSender{Logger: log}
	}
	sender, err := notify.NewSMTPSender(cfg)
	if err != nil {
		log.Fatal("EMAIL", fmt.Sprintf("SMTP setup failed: %v", err))
	}
	log.Info("EMAIL", fmt.Sprintf("SMTP delivery via %s:%d", cfg.SMTPHost, cfg.SMTPPort))
	return sender
}

func main() {
	log := logger.NewLogger("dreamstate-ticketing")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	migrator := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := migrator.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	factionStore := &factions.Store{Bun: bunDB}
	roster := factions.NewSource(factionStore, redisClient, cfg.Redis.RosterCacheTTL, log)
	qrGen := qr.NewQRGenerator(cfg.Site.BaseURL)

	var sessionStore auth.SessionStore
	if redisClient != nil {
		sessionStore = auth.NewRedisSessionStore(redisClient)
	}
	sessions, err := auth.NewSessionManager(cfg.Admin.Password, cfg.Admin.JWTSecret, cfg.Admin.SessionTTL, sessionStore, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	orderService := order.NewOrderService(&order_db.DB{Bun: bunDB}, &ticket_db.DB{Bun: bunDB}, roster, log)
	orderService.Notifier = notify.NewNotifier(newSender(cfg.Email, log), qrGen, cfg.Site.EventName)
	orderService.SiteBaseURL = cfg.Site.BaseURL
	orderService.WebhookSecret = cfg.Stripe.WebhookSecret
	if redisClient != nil {
		orderService.Locks = rediswrap.NewRedis(redisClient, cfg.Locks.FulfillmentTTL, cfg.Locks.RedemptionTTL, log)
	}
	if cfg.Stripe.SecretKey != "" {
		checkout, err := order.NewStripeCheckout(cfg.Stripe.SecretKey, log)
		if err != nil {
			log.Fatal("STRIPE", err.Error())
		}
		orderService.Checkout = checkout
	} else {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set; checkout sessions are disabled")
	}

	ticketService := tickets.NewTicketService(&ticket_db.DB{Bun: bunDB}, sessions, log)

	emitter := sse.NewScoreboardEmitter()
	scoreService := scores.NewScoreService(&scores_db.DB{Bun: bunDB}, factionStore, log)
	scoreService.Emitter = emitter

	if producer != nil {
		orderService.Producer = producer
		orderService.Topics = cfg.Kafka.Topics
		ticketService.Producer = producer
		ticketService.Topic = cfg.Kafka.Topics.TicketVerified
		scoreService.Producer = producer
		scoreService.Topic = cfg.Kafka.Topics.FactionScored
	}

	router := newRouter(handlers{
		Orders:   order_api.NewHandler(orderService, log),
		Tickets:  ticket_api.NewHandler(ticketService, qrGen, log),
		Scores:   scores_api.NewHandler(scoreService, emitter, log),
		Sessions: auth.NewSessionHandler(sessions),
		Auth:     sessions,
		Logger:   log,
	})

	// WriteTimeout stays off so the scoreboard stream is not cut.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Dreamstate ticketing running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Dreamstate ticketing shutdown complete")
	}
}
