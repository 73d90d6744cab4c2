package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"club95/internal/auth"
	auth_api "club95/internal/auth/api"
	auth_db "club95/internal/auth/db"
	"club95/internal/config"
	"club95/internal/database"
	"club95/internal/database/migrations"
	"club95/internal/events"
	events_api "club95/internal/events/api"
	events_db "club95/internal/events/db"
	"club95/internal/inventory"
	inventory_api "club95/internal/inventory/api"
	inventory_db "club95/internal/inventory/db"
	"club95/internal/kafka"
	"club95/internal/logger"
	"club95/internal/qr"
	redisw "club95/internal/redis"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return database.NewBun(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", "✅ Redis connection successful to "+cfg.Addr)
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Club95 initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.Options{
			MigrationsDir: cfg.Database.MigrationsDir,
			SeedData:      cfg.Database.SeedData,
		})
		if err := runner.Run(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	var tierLocks inventory.TierLocker
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = connectRedis(ctx, cfg.Redis, log)
		defer redisClient.Close()
		tierLocks = redisw.NewRedis(redisClient, log)
	} else {
		log.Warn("REDIS", "Redis disabled, purchases rely on database row locks only")
	}

	var producer inventory.Publisher
	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()

		requiredTopics := []string{
			kafka.TopicOrderCreated,
			kafka.TopicOrderRefunded,
			kafka.TopicEventStatusChanged,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
		producer = kafkaProducer
	} else {
		log.Info("KAFKA", "Kafka disabled, order events stay local")
	}

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	qrGenerator := qr.NewGenerator(cfg.Auth.QRSecret)

	authService := auth.NewService(&auth_db.DB{Bun: bunDB}, tokenIssuer)
	eventsService := events.NewService(events_db.New(bunDB))
	inventoryService := inventory.NewService(inventory_db.New(bunDB), tierLocks, producer, log)

	authHandler := auth_api.NewHandler(authService, log)
	eventsHandler := events_api.NewHandler(eventsService, log)
	inventoryHandler := inventory_api.NewHandler(inventoryService, qrGenerator, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public Routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/events", eventsHandler.ListEvents)
		r.Get("/events/{eventID}", eventsHandler.GetEvent)
		r.Get("/events/{eventID}/comments", eventsHandler.ListComments)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenIssuer))

			r.Get("/auth/profile", authHandler.Profile)

			r.Post("/events", eventsHandler.CreateEvent)
			r.Get("/events/mine", eventsHandler.MyEvents)
			r.Post("/events/{eventID}/cancel", eventsHandler.CancelEvent)
			r.Post("/events/{eventID}/comments", eventsHandler.AddComment)

			r.Post("/events/{eventID}/purchase", inventoryHandler.Purchase)
			r.Get("/orders", inventoryHandler.MyOrders)
			r.Put("/tickets/{ticketID}", inventoryHandler.UpdateTier)
			r.Delete("/tickets/{ticketID}", inventoryHandler.DeleteTier)
		})
	})
	log.Info("ROUTER", "Routes registered under /api/v1")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "🚀 Club95 running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Club95 shutdown complete")
	}
}
