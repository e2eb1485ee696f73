package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authApp "github.com/nico4348/baileys-nest-sub001/internal/authstate/app"
	authPg "github.com/nico4348/baileys-nest-sub001/internal/authstate/repository/postgres"
	gwmiddleware "github.com/nico4348/baileys-nest-sub001/internal/gateway_service/middleware"
	gwhttp "github.com/nico4348/baileys-nest-sub001/internal/gateway_service/transport/http"
	"github.com/nico4348/baileys-nest-sub001/internal/messaging/adapters/transport"
	msgApp "github.com/nico4348/baileys-nest-sub001/internal/messaging/app"
	msgPg "github.com/nico4348/baileys-nest-sub001/internal/messaging/repository/postgres"
	"github.com/nico4348/baileys-nest-sub001/internal/platform/config"
	"github.com/nico4348/baileys-nest-sub001/internal/platform/database"
	"github.com/nico4348/baileys-nest-sub001/internal/platform/logger"
	"github.com/nico4348/baileys-nest-sub001/internal/platform/messagebroker"
)

func main() {
	cfg, err := config.Load("./configs", "config.defaults")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Gateway service starting...", "log_level", cfg.LogLevel)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, "gateway-service", appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	messageRepo := msgPg.NewPgMessageRepository()
	statusRepo := msgPg.NewPgStatusEventRepository()
	authRepo := authPg.NewPgAuthEntryRepository(dbPool)
	txManager := database.NewTxManager(dbPool)

	statusEngine := msgApp.NewStatusEngine(statusRepo, dbPool, appLogger)
	transportAdapter := transport.NewMockTransport(appLogger, cfg.TransportName, 0, 0, 0)
	orchestrator := msgApp.NewOrchestrator(
		messageRepo, statusEngine, transportAdapter, txManager, dbPool, natsClient, appLogger,
	)
	authStateService := authApp.NewService(authRepo, authApp.GenerateCredentials, appLogger)

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	ackConsumer := msgApp.NewAckConsumer(natsClient, orchestrator, appLogger)
	if err := ackConsumer.Start(appCtx, cfg.TransportAckSubject, cfg.TransportAckQueueName); err != nil {
		appLogger.Error("Failed to start transport ack consumer", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Transport ack consumer started",
		"subject", cfg.TransportAckSubject, "queue_group", cfg.TransportAckQueueName)

	router := chi.NewRouter()
	router.Use(chi_middleware.RequestID)
	router.Use(chi_middleware.RealIP)
	router.Use(chi_middleware.Recoverer)
	router.Use(chi_middleware.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	messageHandler := gwhttp.NewMessageHandler(orchestrator, authStateService, appLogger)
	router.Group(func(r chi.Router) {
		r.Use(gwmiddleware.APIKeyAuth(cfg.APIKeyHash, appLogger))
		messageHandler.RegisterRoutes(r)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	cancelAppCtx()
	ackConsumer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}

	appLogger.Info("Gateway service shut down successfully.")
}
