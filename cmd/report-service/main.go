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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ledger/internal/config"
	"ms-ledger/internal/kafka"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/report"
	report_api "ms-ledger/internal/report/api"
)

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Report Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	logger.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	reportService := report.NewService(bunDB)
	liveTracker := report.NewLiveTracker(cfg.Kafka.Topics.TicketIssued)

	// Prime the live counters from the authoritative aggregates so the
	// dashboard doesn't start from zero after a restart.
	if reports, err := reportService.ListEventReports(ctx); err != nil {
		logger.Warn("REPORT", fmt.Sprintf("Failed to seed live counters: %v", err))
	} else {
		for _, r := range reports {
			liveTracker.Seed(r.EventID, r.Total, r.CheckedIn)
		}
		logger.Info("REPORT", fmt.Sprintf("Seeded live counters for %d events", len(reports)))
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		topics := []string{
			cfg.Kafka.Topics.TicketIssued,
			cfg.Kafka.Topics.CheckInRecorded,
			cfg.Kafka.Topics.CheckInReversed,
		}
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID)
		go consumer.Start(ctx, liveTracker.Handle)
		logger.Info("KAFKA", "Live tracker consumer started")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, live counters will not update")
	}

	handler := report_api.NewHandler(reportService, liveTracker, logger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.RegisterRoutes(engine)

	port := os.Getenv("REPORT_PORT")
	if port == "" {
		port = ":8085"
	}

	server := &http.Server{
		Addr:         port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Report Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Report Service shutdown complete")
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close consumer: %v", err))
		}
	}
}
