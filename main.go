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
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ledger/internal/auth"
	"ms-ledger/internal/catalog"
	catalog_api "ms-ledger/internal/catalog/api"
	catalog_db "ms-ledger/internal/catalog/db"
	"ms-ledger/internal/config"
	"ms-ledger/internal/database/migrations"
	"ms-ledger/internal/issuer"
	issuer_api "ms-ledger/internal/issuer/api"
	issuer_db "ms-ledger/internal/issuer/db"
	"ms-ledger/internal/issuer/qr"
	"ms-ledger/internal/kafka"
	"ms-ledger/internal/ledger"
	ledger_api "ms-ledger/internal/ledger/api"
	ledger_db "ms-ledger/internal/ledger/db"
	ledger_redis "ms-ledger/internal/ledger/redis"
	"ms-ledger/internal/logger"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Ticket Ledger Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
		if err := runner.Up(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Auto-migration failed: %v", err))
		}
		logger.Info("DATABASE", "Migrations applied")
	}

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.TicketIssued,
			cfg.Kafka.Topics.CheckInRecorded,
			cfg.Kafka.Topics.CheckInReversed,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		logger.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	qrGen := qr.NewQRGenerator(cfg.QR.SecretKey)

	catalogService := catalog.NewCatalogService(&catalog_db.DB{Bun: bunDB})

	var issuerPublisher issuer.KafkaPublisher
	var ledgerPublisher ledger.KafkaPublisher
	if kafkaProducer != nil {
		issuerPublisher = kafkaProducer
		ledgerPublisher = kafkaProducer
	}

	issuerService := issuer.NewIssuerService(
		&issuer_db.DB{Bun: bunDB},
		issuerPublisher,
		qrGen,
		cfg.Kafka.Topics,
		logger,
	)

	locker := ledger_redis.NewLocker(redisClient, cfg.CheckIn.LockTTL, cfg.CheckIn.LockWait)
	ledgerService := ledger.NewLedgerService(
		&ledger_db.DB{Bun: bunDB},
		locker,
		ledgerPublisher,
		cfg.Kafka.Topics,
		logger,
	)

	catalogHandler := catalog_api.NewHandler(catalogService, logger)
	issuerHandler := issuer_api.NewHandler(issuerService, logger)
	ledgerHandler := ledger_api.NewHandler(ledgerService, qrGen, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/events", catalogHandler.ListEvents)
	r.Get("/api/events/{eventId}", catalogHandler.GetEvent)
	r.Get("/api/events/{eventId}/tiers/{tier}/availability", catalogHandler.GetTierAvailability)
	r.Get("/api/events/{eventId}/progress", ledgerHandler.GetEventProgress)
	logger.Info("ROUTER", "Public catalog and progress endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		logger.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Post("/events", catalogHandler.CreateEvent)
			r.Put("/events/{eventId}/tiers/{tier}/price", catalogHandler.UpdateTierPrice)
			r.Delete("/events/{eventId}", catalogHandler.DeleteEvent)
			logger.Info("ROUTER", "Event management routes registered under /api/events")

			r.Route("/tickets", func(r chi.Router) {
				r.Post("/", issuerHandler.IssueTicket)
				r.Get("/", issuerHandler.ListTicketsByHolder)
				r.Get("/{ticketId}", issuerHandler.ViewTicket)
				r.Get("/{ticketId}/qr", issuerHandler.TicketQR)
				r.Get("/{ticketId}/audit", ledgerHandler.GetAuditTrail)
			})
			r.Get("/events/{eventId}/tickets", issuerHandler.ListTicketsByEvent)
			logger.Info("ROUTER", "Ticket routes registered under /api/tickets")

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireScannerRole())
				r.Post("/checkin", ledgerHandler.CheckIn)
				r.Post("/checkin/undo", ledgerHandler.UndoCheckIn)
			})
			logger.Info("ROUTER", "Check-in routes registered under /api/checkin (scanner role required)")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Ticket Ledger Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Ticket Ledger Service shutdown complete")
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}
