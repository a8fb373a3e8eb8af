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
	"github.com/labbuddy/platform/pkg/catalog"
	"github.com/labbuddy/platform/pkg/common/config"
	"github.com/labbuddy/platform/pkg/common/database"
	"github.com/labbuddy/platform/pkg/common/kafka"
	"github.com/labbuddy/platform/pkg/common/logger"
	"github.com/labbuddy/platform/pkg/identity"
	"github.com/labbuddy/platform/pkg/middleware"
	"github.com/labbuddy/platform/pkg/notify"
	"github.com/labbuddy/platform/pkg/report"
	"github.com/labbuddy/platform/pkg/storage"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres(db)

	userRepo := identity.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	reportRepo := report.NewRepository(db)
	notifyRepo := notify.NewRepository(db)
	for name, migrate := range map[string]func() error{
		"users":         userRepo.AutoMigrate,
		"catalog":       catalogRepo.AutoMigrate,
		"reports":       reportRepo.AutoMigrate,
		"notifications": notifyRepo.AutoMigrate,
	} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).WithField("tables", name).Fatal("failed to migrate tables")
		}
	}

	redisClient := database.ConnectRedis(cfg)
	defer database.CloseRedis(redisClient)

	producer := kafka.NewProducer(cfg, cfg.KafkaReportTopic)
	defer producer.Close()

	gateway, err := storage.NewS3Gateway(context.Background(), cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to initialize object storage")
	}

	templates, err := notify.LoadTemplates(cfg.NotifyTemplateFile)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.NotifyTemplateFile).Warn("using default notification templates")
	}

	tokens, err := identity.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTokenTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid token configuration")
	}

	userService := identity.NewService(userRepo)
	catalogService := catalog.NewService(catalogRepo, userRepo)
	notifyService := notify.NewService(notifyRepo, userRepo, catalogRepo, templates, redisClient, cfg.UnreadCountTTL)
	reportService := report.NewService(reportRepo, catalogRepo, notifyService, producer, gateway, cfg.ReportMaxSizeMB, cfg.PresignExpiry)

	identityHandler := identity.NewHandler(userService, tokens)
	catalogHandler := catalog.NewHandler(catalogService)
	reportHandler := report.NewHandler(reportService)
	notifyHandler := notify.NewHandler(notifyService)

	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Recovery, middleware.CORS, middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	public := router.PathPrefix("/api/v1").Subrouter()
	identityHandler.Register(public)

	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.Authenticate(identity.NewAuthenticator(tokens, userService)))
	identityHandler.RegisterProtected(protected)
	catalogHandler.Register(protected)
	reportHandler.Register(protected)
	notifyHandler.Register(protected)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start API server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("API server forced to shutdown")
	}
	logger.Log.Info("API server stopped")
}
