package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sentira-edu/platform/pkg/common/config"
	"github.com/sentira-edu/platform/pkg/common/database"
	"github.com/sentira-edu/platform/pkg/common/kafka"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/middleware"
	"github.com/sentira-edu/platform/pkg/notifier"
	"github.com/sentira-edu/platform/pkg/observability/metrics"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := notifier.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate notification tables")
	}

	service := notifier.NewService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionConsumer := kafka.NewConsumer(kafka.TopicSessions, "notifier-sessions")
	defer sessionConsumer.Close()
	alertConsumer := kafka.NewConsumer(kafka.TopicAlerts, "notifier-alerts")
	defer alertConsumer.Close()

	go func() {
		if err := sessionConsumer.Consume(ctx, service.HandleSessionEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("session consumer stopped")
		}
	}()
	go func() {
		if err := alertConsumer.Consume(ctx, service.HandleAlertEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("alert consumer stopped")
		}
	}()

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS,
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1/notifier").Subrouter()
	notifier.NewHandler(service).Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.NotifierServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Notifier service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start notifier service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down notifier service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("notifier service forced to shutdown")
	}
	logger.Log.Info("Notifier service stopped")
}
