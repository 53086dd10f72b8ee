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
	"github.com/sentira-edu/platform/pkg/alerts"
	"github.com/sentira-edu/platform/pkg/assessment"
	"github.com/sentira-edu/platform/pkg/common/config"
	"github.com/sentira-edu/platform/pkg/common/database"
	"github.com/sentira-edu/platform/pkg/common/kafka"
	"github.com/sentira-edu/platform/pkg/common/logger"
	"github.com/sentira-edu/platform/pkg/common/middleware"
	"github.com/sentira-edu/platform/pkg/interpret"
	"github.com/sentira-edu/platform/pkg/itembank"
	"github.com/sentira-edu/platform/pkg/observability/metrics"
	"github.com/sentira-edu/platform/pkg/session"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	itemRepo := itembank.NewRepository(db)
	if err := itemRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate item bank tables")
	}
	itemCatalog, err := itembank.LoadCatalog(cfg.ItemBankCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load item bank catalog")
	}
	if err := itemRepo.Seed(context.Background(), itemCatalog); err != nil {
		logger.Log.WithError(err).Fatal("failed to seed item bank")
	}
	items := itembank.NewCachedSource(itemRepo, database.GetRedis(), cfg.ItemBankCacheTTL)

	sessionRepo := session.NewRepository(db)
	if err := sessionRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate session tables")
	}

	alertRepo := alerts.NewRepository(db)
	if err := alertRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate alert tables")
	}

	scaleCatalog, err := interpret.LoadCatalog(cfg.ScaleCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load scale catalog")
	}

	sessionProducer := kafka.NewProducer(kafka.TopicSessions)
	defer sessionProducer.Close()
	alertProducer := kafka.NewProducer(kafka.TopicAlerts)
	defer alertProducer.Close()

	alertService := alerts.NewService(alertRepo, alertProducer, cfg.AlertDedupWindow)

	engine := assessment.NewService(
		sessionRepo,
		items,
		interpret.New(scaleCatalog),
		alertService,
		sessionProducer,
		session.StopPolicy{
			MinResponses: cfg.MinResponsesToStop,
			SEMThreshold: cfg.SEMStopThreshold,
			MaxItemRatio: cfg.AdaptiveMaxItemRatio,
		},
		cfg.InitialTheta,
		cfg.InitialSEM,
	)

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

	api := router.PathPrefix("/api/v1/assessment").Subrouter()
	api.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	assessment.NewHandler(engine).Register(api)
	alerts.NewHandler(alertService).Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.AssessmentServicePort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Assessment service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start assessment service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down assessment service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("assessment service forced to shutdown")
	}
	logger.Log.Info("Assessment service stopped")
}
